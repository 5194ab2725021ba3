package splitter

import (
	"fmt"

	"rag-assistant-be/pkg/rag/document"
)

// Config holds the chunking parameters. MaxLength and Overlap are measured
// in runes so multi-byte text never gets cut mid-character.
type Config struct {
	MaxLength int
	Overlap   int
}

func DefaultConfig() Config {
	return Config{
		MaxLength: 500,
		Overlap:   50,
	}
}

// Split cuts a document into overlapping segments of at most MaxLength runes.
// The overlap preserves context at chunk boundaries. Splitting is
// deterministic and position-preserving: segment N always covers the same
// rune range for the same input and config.
func Split(doc document.Document, cfg Config) []document.Segment {
	if cfg.MaxLength <= 0 {
		cfg = DefaultConfig()
	}

	runes := []rune(doc.Text)
	totalLen := len(runes)

	if totalLen == 0 {
		return nil
	}

	if totalLen <= cfg.MaxLength {
		return []document.Segment{newSegment(doc, 0, doc.Text)}
	}

	step := cfg.MaxLength - cfg.Overlap
	if step <= 0 {
		step = cfg.MaxLength // fallback if overlap >= max length
	}

	var segments []document.Segment
	ordinal := 0
	for i := 0; i < totalLen; i += step {
		end := i + cfg.MaxLength
		if end > totalLen {
			end = totalLen
		}

		segments = append(segments, newSegment(doc, ordinal, string(runes[i:end])))
		ordinal++

		if end == totalLen {
			break
		}
	}

	return segments
}

func newSegment(doc document.Document, ordinal int, text string) document.Segment {
	return document.Segment{
		ID:         fmt.Sprintf("%s#%d", doc.ID, ordinal),
		DocumentID: doc.ID,
		Ordinal:    ordinal,
		Text:       text,
		Source:     doc.Source,
	}
}

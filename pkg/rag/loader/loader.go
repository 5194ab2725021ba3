package loader

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Loader turns a document path into plain text. Implementations wrap the
// external text-extraction backend; a load error means "skip this
// document", never "abort the pipeline".
type Loader interface {
	Load(path string) (string, error)
}

// PlainTextLoader reads UTF-8 text files as-is. Non-text content is
// rejected so a stray binary in the corpus directory is skipped instead
// of polluting the index.
type PlainTextLoader struct{}

func NewPlainTextLoader() *PlainTextLoader {
	return &PlainTextLoader{}
}

var _ Loader = &PlainTextLoader{}

func (l *PlainTextLoader) Load(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	text := string(raw)
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%s: not valid UTF-8 text", path)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: empty document", path)
	}

	return text, nil
}

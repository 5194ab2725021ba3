package ingest

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"rag-assistant-be/pkg/embedding"
	"rag-assistant-be/pkg/rag/document"
	"rag-assistant-be/pkg/rag/index"
	"rag-assistant-be/pkg/rag/loader"
	"rag-assistant-be/pkg/rag/splitter"
)

// Source describes one document corpus to ingest.
type Source struct {
	Label       string
	Description string // used by the query router
	Dir         string
	Extensions  []string // e.g. [".txt", ".md"]
}

// Pipeline loads a corpus, splits it into segments, embeds them and
// populates a fresh vector index. Ingestion degrades gracefully: a
// missing or empty corpus yields an empty index, and per-document
// failures skip that document only.
type Pipeline struct {
	loader            loader.Loader
	embeddingProvider embedding.EmbeddingProvider
	splitConfig       splitter.Config
	minDocuments      int
	logger            *log.Logger
}

func NewPipeline(
	docLoader loader.Loader,
	embeddingProvider embedding.EmbeddingProvider,
	splitConfig splitter.Config,
	minDocuments int,
	logger *log.Logger,
) *Pipeline {
	if minDocuments <= 0 {
		minDocuments = 2
	}
	return &Pipeline{
		loader:            docLoader,
		embeddingProvider: embeddingProvider,
		splitConfig:       splitConfig,
		minDocuments:      minDocuments,
		logger:            logger,
	}
}

// Ingest builds a new index for the source. It never fails on corpus
// problems; the only hard errors are embedding-dimension violations,
// which indicate a misconfigured provider.
func (p *Pipeline) Ingest(ctx context.Context, src Source) (*index.VectorIndex, error) {
	idx := index.New(src.Label, src.Description)

	docs := p.loadDocuments(src)
	if len(docs) == 0 {
		p.logger.Printf("[WARN] Corpus %s: no documents found, index is empty", src.Label)
		return idx, nil
	}
	if len(docs) < p.minDocuments {
		p.logger.Printf("[WARN] Corpus %s: only %d document(s) found, expected at least %d",
			src.Label, len(docs), p.minDocuments)
	}

	total := 0
	for _, doc := range docs {
		segments := splitter.Split(doc, p.splitConfig)
		if len(segments) == 0 {
			continue
		}

		texts := make([]string, len(segments))
		for i, seg := range segments {
			texts[i] = seg.Text
		}

		vectors, err := p.embeddingProvider.GenerateBatch(ctx, texts, embedding.TaskRetrievalDocument)
		if err != nil {
			p.logger.Printf("[WARN] Corpus %s: embedding failed for %s, skipping document: %v",
				src.Label, doc.ID, err)
			continue
		}

		for i, seg := range segments {
			if err := idx.Add(seg, vectors[i]); err != nil {
				return nil, err
			}
		}
		total += len(segments)
	}

	p.logger.Printf("[INFO] Corpus %s: ingested %d documents into %d segments",
		src.Label, len(docs), total)
	return idx, nil
}

// loadDocuments lists and parses the corpus directory. A missing
// directory is created empty; unreadable documents are skipped.
func (p *Pipeline) loadDocuments(src Source) []document.Document {
	if _, err := os.Stat(src.Dir); os.IsNotExist(err) {
		p.logger.Printf("[WARN] Corpus %s: directory %s does not exist, creating it", src.Label, src.Dir)
		if mkErr := os.MkdirAll(src.Dir, 0755); mkErr != nil {
			p.logger.Printf("[ERROR] Corpus %s: cannot create %s: %v", src.Label, src.Dir, mkErr)
		}
		return nil
	}

	entries, err := os.ReadDir(src.Dir)
	if err != nil {
		p.logger.Printf("[ERROR] Corpus %s: cannot read %s: %v", src.Label, src.Dir, err)
		return nil
	}

	var docs []document.Document
	for _, entry := range entries {
		if entry.IsDir() || !p.matchesExtension(entry.Name(), src.Extensions) {
			continue
		}

		path := filepath.Join(src.Dir, entry.Name())
		text, err := p.loader.Load(path)
		if err != nil {
			p.logger.Printf("[WARN] Corpus %s: skipping %s: %v", src.Label, entry.Name(), err)
			continue
		}

		p.logger.Printf("[INFO] Corpus %s: loaded document %s (%d chars)", src.Label, entry.Name(), len(text))
		docs = append(docs, document.Document{
			ID:     entry.Name(),
			Text:   text,
			Source: src.Label,
		})
	}

	return docs
}

func (p *Pipeline) matchesExtension(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

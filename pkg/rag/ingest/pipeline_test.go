package ingest

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"rag-assistant-be/pkg/rag/loader"
	"rag-assistant-be/pkg/rag/splitter"
)

// fakeEmbedder returns a fixed-dimension unit vector for any text.
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Generate(_ context.Context, _ string, _ string) ([]float32, error) {
	f.calls++
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, _ := f.Generate(ctx, text, taskType)
		out[i] = v
	}
	return out, nil
}

func newTestPipeline(embedder *fakeEmbedder) *Pipeline {
	return NewPipeline(
		loader.NewPlainTextLoader(),
		embedder,
		splitter.Config{MaxLength: 50, Overlap: 5},
		2,
		log.New(io.Discard, "", 0),
	)
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIngestPopulatesIndex(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "one.txt", "A short document about vector search.")
	writeDoc(t, dir, "two.md", "Another document, this one about conversational assistants and routing.")

	embedder := &fakeEmbedder{}
	p := newTestPipeline(embedder)

	idx, err := p.Ingest(context.Background(), Source{
		Label:      "docs",
		Dir:        dir,
		Extensions: []string{".txt", ".md"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if idx.Size() == 0 {
		t.Fatal("index is empty after ingesting two documents")
	}
	if idx.Dimension() != 3 {
		t.Errorf("dimension = %d, want 3", idx.Dimension())
	}
	if embedder.calls != idx.Size() {
		t.Errorf("embedded %d segments but stored %d", embedder.calls, idx.Size())
	}
}

func TestIngestMissingDirCreatesItEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist-yet")

	p := newTestPipeline(&fakeEmbedder{})
	idx, err := p.Ingest(context.Background(), Source{Label: "docs", Dir: dir})
	if err != nil {
		t.Fatal(err)
	}

	if idx.Size() != 0 {
		t.Errorf("index size = %d, want 0", idx.Size())
	}
	if _, statErr := os.Stat(dir); statErr != nil {
		t.Errorf("missing corpus directory should have been created: %v", statErr)
	}
}

func TestIngestSkipsUnloadableDocuments(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "good.txt", "Perfectly fine document content here.")
	writeDoc(t, dir, "empty.txt", "   \n\t  ")
	writeDoc(t, dir, "binary.txt", string([]byte{0xff, 0xfe, 0x00, 0x41}))

	p := newTestPipeline(&fakeEmbedder{})
	idx, err := p.Ingest(context.Background(), Source{
		Label:      "docs",
		Dir:        dir,
		Extensions: []string{".txt"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if idx.Size() == 0 {
		t.Error("the loadable document should still have been indexed")
	}
}

func TestIngestFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "doc.txt", "Text file, should be picked up by the scan.")
	writeDoc(t, dir, "image.png", "not really a png")
	writeDoc(t, dir, "notes.MD", "Extension matching must be case-insensitive.")

	embedder := &fakeEmbedder{}
	p := newTestPipeline(embedder)

	idx, err := p.Ingest(context.Background(), Source{
		Label:      "docs",
		Dir:        dir,
		Extensions: []string{".txt", ".md"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// two documents, both short enough for one segment each
	if idx.Size() != 2 {
		t.Errorf("index size = %d, want 2", idx.Size())
	}
}

func TestIngestIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "doc.txt", "Stable content produces a stable index.")

	p := newTestPipeline(&fakeEmbedder{})
	src := Source{Label: "docs", Dir: dir, Extensions: []string{".txt"}}

	first, err := p.Ingest(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Ingest(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}

	if first.Size() != second.Size() {
		t.Errorf("sizes differ between runs: %d vs %d", first.Size(), second.Size())
	}
}

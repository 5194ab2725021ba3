package service

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"rag-assistant-be/internal/config"
	"rag-assistant-be/internal/dto"
	"rag-assistant-be/pkg/rag/index"
	"rag-assistant-be/pkg/rag/ingest"
	"rag-assistant-be/pkg/rag/loader"
	"rag-assistant-be/pkg/rag/splitter"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConsumerFixture(t *testing.T, dir string) (IConsumerService, *index.Registry, *gochannel.GoChannel) {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	registry := index.NewRegistry()
	pipeline := ingest.NewPipeline(
		loader.NewPlainTextLoader(),
		&fakeEmbedder{},
		splitter.Config{MaxLength: 100, Overlap: 10},
		2,
		log.New(io.Discard, "", 0),
	)

	ragCfg := config.RagConfig{
		Corpora:    []config.CorpusConfig{{Label: "docs", Dir: dir, Description: "test docs"}},
		Extensions: []string{".txt"},
	}

	consumer := NewConsumerService(pubSub, "REINGEST_TEST", pipeline, registry, ragCfg, nopLogger{})
	return consumer, registry, pubSub
}

func TestRebuildAllRegistersIndexes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("short document one"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("short document two"), 0644))

	consumer, registry, _ := newConsumerFixture(t, dir)

	require.NoError(t, consumer.RebuildAll(context.Background()))

	idx := registry.Get("docs")
	require.NotNil(t, idx)
	assert.Equal(t, 2, idx.Size())
}

func TestReingestMessageTriggersRebuild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("some content"), 0644))

	consumer, registry, pubSub := newConsumerFixture(t, dir)
	publisher := NewPublisherService(pubSub, "REINGEST_TEST")

	require.NoError(t, consumer.Consume(context.Background()))

	payload, err := json.Marshal(dto.ReingestMessage{RequestedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), payload))

	assert.Eventually(t, func() bool {
		idx := registry.Get("docs")
		return idx != nil && idx.Size() > 0
	}, 2*time.Second, 10*time.Millisecond)
}

// gatedEmbedder blocks embedding until released, so a rebuild can be
// held mid-flight while the test issues an overlapping request.
type gatedEmbedder struct {
	fakeEmbedder
	startedOnce sync.Once
	started     chan struct{}
	release     chan struct{}
}

func (g *gatedEmbedder) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	g.startedOnce.Do(func() { close(g.started) })
	<-g.release
	return g.fakeEmbedder.GenerateBatch(ctx, texts, taskType)
}

func TestOverlappingRebuildRunsFollowUpPass(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("first file"), 0644))

	embedder := &gatedEmbedder{started: make(chan struct{}), release: make(chan struct{})}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	registry := index.NewRegistry()
	pipeline := ingest.NewPipeline(
		loader.NewPlainTextLoader(),
		embedder,
		splitter.Config{MaxLength: 100, Overlap: 10},
		2,
		log.New(io.Discard, "", 0),
	)
	ragCfg := config.RagConfig{
		Corpora:    []config.CorpusConfig{{Label: "docs", Dir: dir, Description: "test docs"}},
		Extensions: []string{".txt"},
	}
	consumer := NewConsumerService(pubSub, "REINGEST_TEST", pipeline, registry, ragCfg, nopLogger{})

	done := make(chan error, 1)
	go func() { done <- consumer.RebuildAll(context.Background()) }()

	// The first rebuild has scanned the directory and is blocked in
	// embedding; a file added now is only visible to a follow-up pass.
	<-embedder.started
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("second file"), 0644))
	require.NoError(t, consumer.RebuildAll(context.Background()))

	close(embedder.release)
	require.NoError(t, <-done)

	idx := registry.Get("docs")
	require.NotNil(t, idx)
	assert.Equal(t, 2, idx.Size())
}

func TestRebuildReplacesStaleIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("version one"), 0644))

	consumer, registry, _ := newConsumerFixture(t, dir)
	require.NoError(t, consumer.RebuildAll(context.Background()))
	first := registry.Get("docs")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("version two adds a file"), 0644))
	require.NoError(t, consumer.RebuildAll(context.Background()))

	second := registry.Get("docs")
	require.NotSame(t, first, second)
	assert.Equal(t, 2, second.Size())
}

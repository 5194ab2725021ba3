package service

import (
	"context"
	"encoding/json"
	"sync"

	"rag-assistant-be/internal/config"
	"rag-assistant-be/internal/dto"
	"rag-assistant-be/internal/pkg/logger"
	"rag-assistant-be/pkg/rag/index"
	"rag-assistant-be/pkg/rag/ingest"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
	RebuildAll(ctx context.Context) error
}

// consumerService listens for reingest events and rebuilds the vector
// indexes. Rebuilds are serialized: requests arriving mid-build are
// coalesced into a single follow-up pass, since each rebuild scans the
// full corpus anyway.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	pipeline  *ingest.Pipeline
	registry  *index.Registry
	ragCfg    config.RagConfig
	sysLogger logger.ILogger

	buildMu  sync.Mutex
	building bool
	pending  bool
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	pipeline *ingest.Pipeline,
	registry *index.Registry,
	ragCfg config.RagConfig,
	sysLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		pipeline:  pipeline,
		registry:  registry,
		ragCfg:    ragCfg,
		sysLogger: sysLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ReingestMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.sysLogger.Error("consumer", "Failed to unmarshal reingest message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if err := cs.RebuildAll(ctx); err != nil {
		cs.sysLogger.Error("consumer", "Reingest failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	msg.Ack()
}

// RebuildAll reingests every configured corpus and swaps the fresh
// indexes into the registry. Queries keep hitting the previous indexes
// until their replacement is registered. A request arriving while a
// build is running marks it pending; the running build performs one
// extra pass so late changes are never lost.
func (cs *consumerService) RebuildAll(ctx context.Context) error {
	cs.buildMu.Lock()
	if cs.building {
		cs.pending = true
		cs.buildMu.Unlock()
		cs.sysLogger.Warn("consumer", "Reingest already in progress, coalescing request", nil)
		return nil
	}
	cs.building = true
	cs.buildMu.Unlock()

	for {
		if err := cs.rebuildPass(ctx); err != nil {
			cs.buildMu.Lock()
			cs.building = false
			cs.pending = false
			cs.buildMu.Unlock()
			return err
		}

		cs.buildMu.Lock()
		if !cs.pending {
			cs.building = false
			cs.buildMu.Unlock()
			return nil
		}
		cs.pending = false
		cs.buildMu.Unlock()
	}
}

func (cs *consumerService) rebuildPass(ctx context.Context) error {
	for _, corpus := range cs.ragCfg.Corpora {
		idx, err := cs.pipeline.Ingest(ctx, ingest.Source{
			Label:       corpus.Label,
			Description: corpus.Description,
			Dir:         corpus.Dir,
			Extensions:  cs.ragCfg.Extensions,
		})
		if err != nil {
			return err
		}

		cs.registry.Register(idx)
		cs.sysLogger.Info("consumer", "Corpus index rebuilt", map[string]interface{}{
			"label":    corpus.Label,
			"segments": idx.Size(),
		})
	}

	return nil
}

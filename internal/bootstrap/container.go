package bootstrap

import (
	"log"
	"time"

	"rag-assistant-be/internal/config"
	"rag-assistant-be/internal/constant"
	"rag-assistant-be/internal/controller"
	"rag-assistant-be/internal/pkg/logger"
	"rag-assistant-be/internal/repository/memory"
	"rag-assistant-be/internal/service"
	"rag-assistant-be/pkg/embedding"
	"rag-assistant-be/pkg/llm/factory"
	"rag-assistant-be/pkg/rag/index"
	"rag-assistant-be/pkg/rag/ingest"
	"rag-assistant-be/pkg/rag/loader"
	"rag-assistant-be/pkg/rag/retriever"
	"rag-assistant-be/pkg/rag/splitter"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	SysLogger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository(
		time.Duration(cfg.Session.TTLMinutes)*time.Minute,
		cfg.Session.Window,
		constant.DefaultPersonaPromptV1,
	)

	// 5. RAG Infrastructure
	registry := index.NewRegistry()
	ingestLogger := log.Default()
	pipeline := ingest.NewPipeline(
		loader.NewPlainTextLoader(),
		embeddingProvider,
		splitter.Config{MaxLength: cfg.Rag.ChunkSize, Overlap: cfg.Rag.ChunkOverlap},
		cfg.Rag.MinDocuments,
		ingestLogger,
	)

	// 6. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Rag.ReingestTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Rag.ReingestTopic,
		pipeline,
		registry,
		cfg.Rag,
		sysLogger,
	)

	assistantService := service.NewAssistantService(
		embeddingProvider,
		llmProvider,
		sessionRepo,
		registry,
		publisherService,
		sysLogger,
		cfg.App.RagLogFilePath,
		retriever.Config{TopK: cfg.Rag.TopK, MinScore: cfg.Rag.MinScore},
		cfg.Rag.ShortQueryLen,
	)

	// 7. Controllers
	assistantController := controller.NewAssistantController(assistantService)

	return &Container{
		AssistantController: assistantController,
		ConsumerService:     consumerService,
		SysLogger:           sysLogger,
	}
}

package service

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rag-assistant-be/internal/apperror"
	"rag-assistant-be/internal/constant"
	"rag-assistant-be/internal/dto"
	"rag-assistant-be/internal/pkg/logger"
	"rag-assistant-be/internal/repository/memory"
	"rag-assistant-be/pkg/embedding"
	"rag-assistant-be/pkg/llm"
	"rag-assistant-be/pkg/rag/index"
	"rag-assistant-be/pkg/rag/prompt"
	"rag-assistant-be/pkg/rag/retriever"
	"rag-assistant-be/pkg/rag/router"

	"github.com/google/uuid"
)

// IAssistantService defines the conversational assistant interface
type IAssistantService interface {
	Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error)
	SetPersona(ctx context.Context, request *dto.SetPersonaRequest) (*dto.SetPersonaResponse, error)
	NewConversation(ctx context.Context, request *dto.NewConversationRequest) error
	GetHistory(ctx context.Context, sessionId string) ([]*dto.TurnResponse, error)
	GetPersonas(ctx context.Context) []*dto.PersonaResponse
	RequestReingest(ctx context.Context) error
	IndexStatus(ctx context.Context) []*dto.IndexStatusResponse
}

// assistantService coordinates the routing, retrieval and generation
// components around per-session conversation state.
type assistantService struct {
	llmProvider      llm.LLMProvider
	sessionRepo      *memory.SessionRepository
	registry         *index.Registry
	publisherService IPublisherService
	sysLogger        logger.ILogger
	llmLogger        *log.Logger

	queryRouter  router.Router
	ragRetriever *retriever.Retriever
	retrieveCfg  retriever.Config
}

func NewAssistantService(
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	sessionRepo *memory.SessionRepository,
	registry *index.Registry,
	publisherService IPublisherService,
	sysLogger logger.ILogger,
	ragLogPath string,
	retrieveCfg retriever.Config,
	shortQueryLen int,
) IAssistantService {

	llmLogger := initLLMLogger(ragLogPath)

	return &assistantService{
		llmProvider:      llmProvider,
		sessionRepo:      sessionRepo,
		registry:         registry,
		publisherService: publisherService,
		sysLogger:        sysLogger,
		llmLogger:        llmLogger,

		queryRouter:  router.NewSmartRouter(llmProvider, llmLogger, shortQueryLen),
		ragRetriever: retriever.NewRetriever(embeddingProvider, llmLogger),
		retrieveCfg:  retrieveCfg,
	}
}

func initLLMLogger(logPath string) *log.Logger {
	if logPath == "" {
		logPath = filepath.Join(".", "logs", "llm_rag.log")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// Ask answers one user question inside a session. Sessions are created
// implicitly on first use; a blank session id starts a new one.
func (as *assistantService) Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error) {
	question := strings.TrimSpace(request.Question)
	if question == "" {
		return nil, apperror.NewValidationError("question", "question must not be blank")
	}

	sessionId := request.SessionId
	if sessionId == "" {
		sessionId = uuid.New().String()
	}

	conv := as.sessionRepo.GetOrCreate(sessionId)

	// One exchange at a time per session: history reads and the final
	// turn commit must see a consistent conversation.
	conv.Acquire()
	defer conv.Release()

	history := conv.Snapshot()

	decision := as.queryRouter.Route(ctx, question, as.registry.Snapshot())
	as.llmLogger.Printf("[ROUTER] session=%s used_retrieval=%t reason=%s",
		sessionId, decision.UsedRetrieval, decision.Reason)

	var grounding []index.ScoredSegment
	if decision.UsedRetrieval {
		grounding = as.collectGrounding(ctx, question, decision.Selected)
	}
	usedRetrieval := len(grounding) > 0

	messages := prompt.NewContextualBuilder(history, question, grounding).Build()

	answer, err := as.llmProvider.Chat(ctx, messages)
	if err != nil {
		// The turn is not recorded: a failed exchange must not mutate
		// the conversation.
		as.sysLogger.Error("assistant", "LLM call failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return nil, apperror.NewModelCallError("chat", err)
	}

	conv.RecordTurn(question, answer)

	return &dto.AskResponse{
		SessionId:     sessionId,
		Answer:        answer,
		UsedRetrieval: usedRetrieval,
	}, nil
}

// collectGrounding retrieves from every selected index and merges the
// results, deduplicating by segment id. Index selection order wins,
// then similarity order within an index. Retrieval errors degrade to an
// ungrounded answer rather than failing the exchange.
func (as *assistantService) collectGrounding(ctx context.Context, question string, selected []*index.VectorIndex) []index.ScoredSegment {
	var grounding []index.ScoredSegment
	seen := make(map[string]bool)

	for _, idx := range selected {
		results, err := as.ragRetriever.Retrieve(ctx, question, idx, as.retrieveCfg)
		if err != nil {
			as.sysLogger.Warn("assistant", "Retrieval failed, answering without grounding", map[string]interface{}{
				"index": idx.Label(),
				"error": err.Error(),
			})
			continue
		}
		for _, scored := range results {
			if seen[scored.Segment.ID] {
				continue
			}
			seen[scored.Segment.ID] = true
			grounding = append(grounding, scored)
		}
	}

	return grounding
}

// SetPersona applies a predefined persona to the session. Once the
// first exchange locks the role, later changes are acknowledged but
// not applied.
func (as *assistantService) SetPersona(ctx context.Context, request *dto.SetPersonaRequest) (*dto.SetPersonaResponse, error) {
	promptText, ok := constant.Personas[request.Persona]
	if !ok {
		return nil, apperror.NewValidationError("persona", "unknown persona key: "+request.Persona)
	}

	sessionId := request.SessionId
	if sessionId == "" {
		sessionId = uuid.New().String()
	}

	conv := as.sessionRepo.GetOrCreate(sessionId)
	applied := conv.SetPersona(promptText)
	if !applied {
		as.llmLogger.Printf("[SESSION] session=%s persona change ignored, role locked", sessionId)
	}

	return &dto.SetPersonaResponse{
		SessionId: sessionId,
		Applied:   applied,
	}, nil
}

// NewConversation resets the session to a blank state, unlocking the
// persona. An unknown session id is a no-op.
func (as *assistantService) NewConversation(ctx context.Context, request *dto.NewConversationRequest) error {
	conv, found := as.sessionRepo.Get(request.SessionId)
	if !found {
		return nil
	}
	conv.Acquire()
	defer conv.Release()
	conv.Reset()
	return nil
}

func (as *assistantService) GetHistory(ctx context.Context, sessionId string) ([]*dto.TurnResponse, error) {
	conv, found := as.sessionRepo.Get(sessionId)
	if !found {
		return []*dto.TurnResponse{}, nil
	}

	turns := conv.Turns()
	response := make([]*dto.TurnResponse, 0, len(turns))
	for _, t := range turns {
		response = append(response, &dto.TurnResponse{
			Question:  t.UserText,
			Answer:    t.AssistantText,
			CreatedAt: t.CreatedAt,
		})
	}
	return response, nil
}

func (as *assistantService) GetPersonas(ctx context.Context) []*dto.PersonaResponse {
	response := make([]*dto.PersonaResponse, 0, len(constant.PersonaKeys))
	for _, key := range constant.PersonaKeys {
		response = append(response, &dto.PersonaResponse{
			Key:    key,
			Prompt: constant.Personas[key],
		})
	}
	return response
}

// RequestReingest publishes a rebuild event; the consumer service picks
// it up asynchronously.
func (as *assistantService) RequestReingest(ctx context.Context) error {
	payload, err := json.Marshal(dto.ReingestMessage{RequestedAt: time.Now()})
	if err != nil {
		return err
	}
	return as.publisherService.Publish(ctx, payload)
}

func (as *assistantService) IndexStatus(ctx context.Context) []*dto.IndexStatusResponse {
	indexes := as.registry.Snapshot()
	response := make([]*dto.IndexStatusResponse, 0, len(indexes))
	for _, idx := range indexes {
		response = append(response, &dto.IndexStatusResponse{
			Label:    idx.Label(),
			Segments: idx.Size(),
		})
	}
	return response
}

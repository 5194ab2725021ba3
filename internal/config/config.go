package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"rag-assistant-be/internal/apperror"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Ai      AIConfig
	Rag     RagConfig
	Session SessionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	RagLogFilePath     string
	CorsAllowedOrigins string
}

type AIConfig struct {
	EmbeddingProvider    string // "gemini" or "ollama"
	OllamaBaseURL        string
	OllamaEmbeddingModel string
	LLMProvider          string // "ollama" or "gemini"
	LLMModel             string // e.g. "llama3", "qwen2.5"
	GeminiAPIKey         string
}

// CorpusConfig describes one document directory exposed to the router.
type CorpusConfig struct {
	Label       string
	Dir         string
	Description string
}

type RagConfig struct {
	Corpora       []CorpusConfig
	Extensions    []string
	ChunkSize     int
	ChunkOverlap  int
	TopK          int
	MinScore      float64
	MinDocuments  int
	ShortQueryLen int
	ReingestTopic string
}

type SessionConfig struct {
	Window     int
	TTLMinutes int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			RagLogFilePath:     getEnv("RAG_LOG_FILE_PATH", "logs/llm_rag.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Ai: AIConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:          getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:             getEnv("LLM_MODEL", "llama3"),
			GeminiAPIKey:         getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Rag: RagConfig{
			Corpora:       loadCorpora(),
			Extensions:    getEnvAsList("RAG_DOC_EXTENSIONS", []string{".txt", ".md"}),
			ChunkSize:     getEnvAsInt("RAG_CHUNK_SIZE", 500),
			ChunkOverlap:  getEnvAsInt("RAG_CHUNK_OVERLAP", 50),
			TopK:          getEnvAsInt("RAG_TOP_K", 3),
			MinScore:      getEnvAsFloat("RAG_MIN_SCORE", 0.6),
			MinDocuments:  getEnvAsInt("RAG_MIN_DOCUMENTS", 2),
			ShortQueryLen: getEnvAsInt("RAG_SHORT_QUERY_LEN", 20),
			ReingestTopic: getEnv("REINGEST_TOPIC_NAME", "REINGEST_CORPUS"),
		},
		Session: SessionConfig{
			Window:     getEnvAsInt("SESSION_WINDOW", 10),
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
	}
}

// Validate checks cross-field constraints that getEnv defaults cannot
// express. It returns a ConfigurationError on the first violation.
func (c *Config) Validate() error {
	if c.Ai.LLMProvider == "gemini" && c.Ai.GeminiAPIKey == "" {
		return apperror.NewConfigurationError("GOOGLE_GEMINI_API_KEY",
			"required when LLM_PROVIDER is gemini")
	}
	if c.Ai.EmbeddingProvider == "gemini" && c.Ai.GeminiAPIKey == "" {
		return apperror.NewConfigurationError("GOOGLE_GEMINI_API_KEY",
			"required when EMBEDDING_PROVIDER is gemini")
	}
	if c.Rag.ChunkSize <= 0 {
		return apperror.NewConfigurationError("RAG_CHUNK_SIZE", "must be positive")
	}
	if c.Rag.ChunkOverlap < 0 || c.Rag.ChunkOverlap >= c.Rag.ChunkSize {
		return apperror.NewConfigurationError("RAG_CHUNK_OVERLAP",
			"must be non-negative and smaller than RAG_CHUNK_SIZE")
	}
	if c.Rag.MinScore < 0 || c.Rag.MinScore > 1 {
		return apperror.NewConfigurationError("RAG_MIN_SCORE", "must be within [0, 1]")
	}
	if c.Session.Window <= 0 {
		return apperror.NewConfigurationError("SESSION_WINDOW", "must be positive")
	}
	if len(c.Rag.Corpora) == 0 {
		return apperror.NewConfigurationError("RAG_CORPORA", "at least one corpus is required")
	}
	return nil
}

// loadCorpora reads RAG_CORPORA as a comma-separated list of labels,
// then resolves each label's directory and description from
// RAG_CORPUS_<LABEL>_DIR / RAG_CORPUS_<LABEL>_DESCRIPTION.
func loadCorpora() []CorpusConfig {
	labels := getEnvAsList("RAG_CORPORA", []string{"documents"})

	corpora := make([]CorpusConfig, 0, len(labels))
	for _, label := range labels {
		key := strings.ToUpper(strings.ReplaceAll(label, "-", "_"))
		corpora = append(corpora, CorpusConfig{
			Label: label,
			Dir:   getEnv("RAG_CORPUS_"+key+"_DIR", "documents/"+label),
			Description: getEnv("RAG_CORPUS_"+key+"_DESCRIPTION",
				"General reference documents about "+label),
		})
	}
	return corpora
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	parts := strings.Split(strValue, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

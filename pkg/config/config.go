package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      int
	UploadDir string

	// vector store
	VectorStore  string // "chromem" or "postgres"
	VectorDBPath string
	DatabaseURL  string

	// llm backend
	LLMBackend           string // "ollama" or "openai"
	OllamaURL            string
	OllamaModel          string
	OllamaEmbeddingModel string

	OpenAIKey            string
	OpenAIEmbeddingModel string
	OpenAIChatModel      string

	// rag config
	ChunkSize     int
	ChunkOverlap  int
	ContextWindow int
	Temperature   float64
}

func Load() *Config {
	godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		port = 8080
	}

	return &Config{
		Port:      port,
		UploadDir: getEnv("UPLOAD_DIR", "upload"),

		// vector store
		VectorStore:  getEnv("VECTOR_STORE", "chromem"),
		VectorDBPath: getEnv("VECTOR_DB_PATH", "vectorstore"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		// LLM backend
		LLMBackend:           getEnv("LLM_BACKEND", "ollama"),
		OllamaURL:            getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:          getEnv("OLLAMA_MODEL", "llama3"),
		OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "llama3"),

		// OpenAI
		OpenAIKey:            getEnv("OPENAI_API_KEY", ""),
		OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		OpenAIChatModel:      getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),

		// RAG Config
		ChunkSize:     getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 200),
		ContextWindow: getEnvInt("CONTEXT_WINDOW", 5),
		Temperature:   getEnvFloat("TEMPERATURE", 0.7),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/IrfanArv/dms-ai/internal/adapter/extractor"
	"github.com/IrfanArv/dms-ai/internal/adapter/ollama"
	"github.com/IrfanArv/dms-ai/internal/adapter/openai"
	chromemstore "github.com/IrfanArv/dms-ai/internal/adapter/vectorstore/chromem"
	pgstore "github.com/IrfanArv/dms-ai/internal/adapter/vectorstore/postgres"
	"github.com/IrfanArv/dms-ai/internal/delivery/http/handler"
	"github.com/IrfanArv/dms-ai/internal/domain/repository"
	"github.com/IrfanArv/dms-ai/internal/usecase/ingest"
	"github.com/IrfanArv/dms-ai/internal/usecase/rag"
	"github.com/IrfanArv/dms-ai/pkg/config"
	"github.com/IrfanArv/dms-ai/pkg/database"
	"github.com/IrfanArv/dms-ai/pkg/uploads"
)

func main() {
	cfg := config.Load()

	uploadDir, err := uploads.New(cfg.UploadDir)
	if err != nil {
		log.Fatalf("failed to prepare upload dir: %v", err)
	}

	// initialize llm backend
	var (
		embedder  repository.Embedder
		generator repository.Generator
	)
	switch cfg.LLMBackend {
	case "openai":
		embedder = openai.NewEmbeddingClient(cfg.OpenAIKey, cfg.OpenAIEmbeddingModel)
		generator = openai.NewChatClient(cfg.OpenAIKey, cfg.OpenAIChatModel)
		log.Printf("using OpenAI backend (chat=%s, embedding=%s)", cfg.OpenAIChatModel, cfg.OpenAIEmbeddingModel)
	default:
		embedder = ollama.NewEmbeddingClient(cfg.OllamaURL, cfg.OllamaEmbeddingModel)
		generator = ollama.NewGenerateClient(cfg.OllamaURL, cfg.OllamaModel)
		log.Printf("using Ollama backend at %s (model=%s)", cfg.OllamaURL, cfg.OllamaModel)
	}

	// initialize vector store
	var store repository.VectorStore
	switch cfg.VectorStore {
	case "postgres":
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := database.EnsureSchema(context.Background(), db); err != nil {
			log.Fatalf("failed to prepare database schema: %v", err)
		}
		store = pgstore.NewStore(db, embedder)
		log.Println("using postgres vector store")
	default:
		store, err = chromemstore.NewStore(cfg.VectorDBPath, "documents", embedder)
		if err != nil {
			log.Fatalf("failed to open vector store: %v", err)
		}
		log.Printf("using chromem vector store at %s", cfg.VectorDBPath)
	}

	// initialize usecases
	ingestSvc := ingest.NewService(store, extractor.New(), uploadDir, cfg.ChunkSize, cfg.ChunkOverlap)
	ragSvc := rag.NewService(store, generator, uploadDir, cfg.ContextWindow, float32(cfg.Temperature))

	// initialize handlers
	uploadHandler := handler.NewUploadHandler(ingestSvc)
	chatHandler := handler.NewChatHandler(ragSvc, uploadDir)

	// initialize fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})

	// middleware for log request and response in terminal
	app.Use(logger.New())
	app.Use(cors.New())

	// health check
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Welcome to DMS AI API"})
	})

	// upload routes
	app.Post("/upload", uploadHandler.Upload)
	app.Post("/upload/batch", uploadHandler.UploadBatch)

	// chat routes
	app.Post("/chat", chatHandler.Chat)
	app.Post("/chat/stream", chatHandler.ChatStream)
	app.Get("/chat/document/:filename", chatHandler.GetDocument)

	// Start server
	log.Printf("🚀 Server starting on port %d", cfg.Port)
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

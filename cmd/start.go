package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/finqa-labs/finqa-be/config"
	"github.com/finqa-labs/finqa-be/database"
	"github.com/finqa-labs/finqa-be/handler"
	"github.com/finqa-labs/finqa-be/service"
	"github.com/finqa-labs/finqa-be/types"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Q&A server",
	Long:  `Starts the HTTP server that handles PDF uploads and chat requests.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		// Initialize services
		embedder := service.NewEmbeddingService(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel)

		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig, embedder, cfg.SimilarityThreshold)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}
		// The index must be usable before any request is admitted.
		if err := weaviateDb.Init(context.Background()); err != nil {
			log.Fatalf("Failed to initialize vector index: %v", err)
		}

		generator, err := newGenerator(cfg)
		if err != nil {
			log.Fatalf("Failed to create AI backend: %v", err)
		}

		pdfService := service.NewPDFService(types.DocumentServiceConfig{
			MaxChunkSize: cfg.ChunkSize,
			OverlapSize:  cfg.ChunkOverlap,
		})
		fileService, err := service.NewFileService(cfg.UploadDir, cfg.MaxFileSize, pdfService, weaviateDb)
		if err != nil {
			log.Fatalf("Failed to create file service: %v", err)
		}
		ragService := service.NewRAGService(weaviateDb, generator, cfg.TopK, cfg.GenerationTimeout)
		sessionService := service.NewSessionService()
		feedbackService := service.NewFeedbackService(cfg.FeedbackFile)
		wsService := service.NewWebSocketService(ragService, sessionService)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		uploadHandler := handler.NewUploadHandler(fileService)
		chatHandler := handler.NewChatHandler(ragService, sessionService)
		documentHandler := handler.NewDocumentHandler(weaviateDb)
		feedbackHandler := handler.NewFeedbackHandler(feedbackService)
		healthHandler := handler.NewHealthHandler(weaviateDb)
		wsHandler := handler.NewWebSocketHandler(wsService)

		// Setup Gin router
		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		router.GET("/health", healthHandler.HandleHealth)

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/upload", uploadHandler.HandleUpload)
			apiV1.POST("/chat", chatHandler.HandleChat)
			apiV1.GET("/documents", documentHandler.HandleListDocuments)
			apiV1.DELETE("/documents/:id", documentHandler.HandleDeleteDocument)
			apiV1.GET("/chunks", documentHandler.HandleListChunks)
			apiV1.POST("/feedback", feedbackHandler.HandleSubmitFeedback)
			apiV1.GET("/feedback-stats", feedbackHandler.HandleFeedbackStats)
			apiV1.GET("/ws", wsHandler.HandleChat)
		}

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func newGenerator(cfg *config.Config) (service.Generator, error) {
	switch cfg.AIBackend {
	case "openai":
		return service.NewOpenAIService(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case "gemini":
		return service.NewGeminiService(cfg.GeminiAPIKeys, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown ai_backend %q", cfg.AIBackend)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
}

package cmd

import (
	"context"
	"log"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/finqa-labs/finqa-be/config"
	"github.com/finqa-labs/finqa-be/database"
	"github.com/finqa-labs/finqa-be/service"
	"github.com/finqa-labs/finqa-be/types"
)

// uploadDocumentCmd ingests a single PDF from disk without going through
// the HTTP server.
var uploadDocumentCmd = &cobra.Command{
	Use:   "upload-document",
	Short: "Ingest one PDF file into the vector index",
	Run: func(cmd *cobra.Command, args []string) {
		filePath, _ := cmd.Flags().GetString("file")
		if filePath == "" {
			log.Fatal("--file is required")
		}

		fileService, _ := buildIngestServices()

		result, err := fileService.IngestPDF(context.Background(), filePath, filepath.Base(filePath), uuid.New().String())
		if err != nil {
			log.Fatalf("Failed to ingest %s: %v", filePath, err)
		}
		log.Printf("Ingested %s: document %s, %d chunks", result.Filename, result.DocumentID, result.ChunksCount)
	},
}

func buildIngestServices() (*service.FileService, *database.WeaviateStore) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	embedder := service.NewEmbeddingService(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig, embedder, cfg.SimilarityThreshold)
	if err != nil {
		log.Fatalf("Failed to connect to Weaviate database: %v", err)
	}
	if err := weaviateDb.Init(context.Background()); err != nil {
		log.Fatalf("Failed to initialize vector index: %v", err)
	}

	pdfService := service.NewPDFService(types.DocumentServiceConfig{
		MaxChunkSize: cfg.ChunkSize,
		OverlapSize:  cfg.ChunkOverlap,
	})
	fileService, err := service.NewFileService(cfg.UploadDir, cfg.MaxFileSize, pdfService, weaviateDb)
	if err != nil {
		log.Fatalf("Failed to create file service: %v", err)
	}
	return fileService, weaviateDb
}

func init() {
	rootCmd.AddCommand(uploadDocumentCmd)
	uploadDocumentCmd.Flags().StringP("file", "f", "", "path to the PDF file")
}

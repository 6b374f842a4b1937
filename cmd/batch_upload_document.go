package cmd

import (
	"context"
	"log"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/finqa-labs/finqa-be/utils"
)

// batchUploadDocumentCmd ingests every PDF in a directory, each under its
// own document id.
var batchUploadDocumentCmd = &cobra.Command{
	Use:   "batch-upload-document",
	Short: "Ingest all PDF files in a directory into the vector index",
	Run: func(cmd *cobra.Command, args []string) {
		directory, _ := cmd.Flags().GetString("directory")
		if directory == "" {
			log.Fatal("--directory is required")
		}
		reinit, _ := cmd.Flags().GetBool("reinit")

		fileService, weaviateDb := buildIngestServices()
		if reinit {
			if err := weaviateDb.ReInit(context.Background()); err != nil {
				log.Fatalf("Failed to reinitialize vector index: %v", err)
			}
		}

		paths, err := utils.ListPDFFiles(directory)
		if err != nil {
			log.Fatalf("Failed to list PDF files: %v", err)
		}
		if len(paths) == 0 {
			log.Fatalf("No PDF files found in %s", directory)
		}

		for _, path := range paths {
			result, err := fileService.IngestPDF(context.Background(), path, filepath.Base(path), uuid.New().String())
			if err != nil {
				log.Printf("Failed to ingest %s: %v", path, err)
				continue
			}
			log.Printf("Ingested %s: document %s, %d chunks", result.Filename, result.DocumentID, result.ChunksCount)
		}
	},
}

func init() {
	rootCmd.AddCommand(batchUploadDocumentCmd)
	batchUploadDocumentCmd.Flags().StringP("directory", "d", "", "directory containing PDF files")
	batchUploadDocumentCmd.Flags().Bool("reinit", false, "drop and recreate the vector index before ingesting")
}

package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/finqa-labs/finqa-be/database"
	"github.com/finqa-labs/finqa-be/types"
	"github.com/finqa-labs/finqa-be/utils"
)

// UploadResult summarizes one processed upload.
type UploadResult struct {
	DocumentID  string
	Filename    string
	ChunksCount int
}

// FileService validates uploaded PDFs, stores them on disk and drives the
// ingest path: extraction, chunking and indexing.
type FileService struct {
	uploadDir   string
	maxFileSize int64
	pdfService  *PDFService
	index       database.VectorIndex
}

func NewFileService(uploadDir string, maxFileSize int64, pdfService *PDFService, index database.VectorIndex) (*FileService, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FileService{
		uploadDir:   uploadDir,
		maxFileSize: maxFileSize,
		pdfService:  pdfService,
		index:       index,
	}, nil
}

// ValidateUpload rejects non-PDF extensions and oversized files before any
// bytes are written.
func (s *FileService) ValidateUpload(filename string, size int64) error {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return types.ErrInvalidFileType
	}
	if size > s.maxFileSize {
		return types.ErrFileTooLarge
	}
	return nil
}

// UploadPDF saves the file as {documentID}_{name} under the upload
// directory, extracts and chunks its text, and indexes the chunks under a
// fresh document id.
func (s *FileService) UploadPDF(ctx context.Context, file *multipart.FileHeader) (*UploadResult, error) {
	if err := s.ValidateUpload(file.Filename, file.Size); err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	documentID := uuid.New().String()
	storedName := documentID + "_" + utils.SanitizeFilename(file.Filename)
	storedPath := filepath.Join(s.uploadDir, storedName)

	dst, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	dst.Close()

	result, err := s.IngestPDF(ctx, storedPath, file.Filename, documentID)
	if err != nil {
		// Nothing was indexed; drop the stored file as well.
		os.Remove(storedPath)
		return nil, err
	}
	return result, nil
}

// IngestPDF processes a PDF already on disk and indexes its chunks under
// documentID. Used by UploadPDF and by the batch upload command.
func (s *FileService) IngestPDF(ctx context.Context, path, filename, documentID string) (*UploadResult, error) {
	chunks, err := s.pdfService.ProcessPDF(path, filename)
	if err != nil {
		return nil, err
	}

	if err := s.index.Insert(ctx, chunks, documentID); err != nil {
		return nil, fmt.Errorf("failed to index chunks of %s: %w", filename, err)
	}

	return &UploadResult{
		DocumentID:  documentID,
		Filename:    filename,
		ChunksCount: len(chunks),
	}, nil
}

package types

import "errors"

var (
	// Upload validation
	ErrInvalidFileType = errors.New("only PDF files are allowed")
	ErrFileTooLarge    = errors.New("file is too large")

	// PDF processing
	ErrExtraction = errors.New("failed to extract text from PDF")
	ErrNoContent  = errors.New("no text content found in PDF")

	// Vector index
	ErrIndexNotInitialized = errors.New("vector index not initialized")

	// Answer generation
	ErrGeneration        = errors.New("failed to generate answer")
	ErrGenerationTimeout = errors.New("answer generation timed out")

	// Feedback
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

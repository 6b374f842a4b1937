package database

import (
	"context"

	"github.com/finqa-labs/finqa-be/types"
)

// Embedder turns text into fixed-dimension vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex defines the interface for the chunk embedding store.
// Init must complete before any other operation; calls made earlier fail
// with types.ErrIndexNotInitialized.
type VectorIndex interface {
	// Init creates the backing collection if it does not exist. Idempotent.
	Init(ctx context.Context) error
	// Ready reports whether Init has completed successfully.
	Ready() bool

	// Insert embeds and stores chunks, tagging each with documentID.
	Insert(ctx context.Context, chunks []types.DocumentChunk, documentID string) error
	// Search returns up to k nearest chunks meeting the similarity
	// threshold, best match first.
	Search(ctx context.Context, query string, k int) ([]types.ScoredChunk, error)
	// DeleteByDocument removes every chunk of one document. Deleting an
	// absent document is a no-op.
	DeleteByDocument(ctx context.Context, documentID string) error
	// ListChunks returns chunks matching the optional filters, truncated
	// to limit. documentID "" and page 0 mean no filter.
	ListChunks(ctx context.Context, documentID string, page int, limit int) ([]types.DocumentChunk, error)
	// ListDocuments aggregates indexed chunks into per-document summaries.
	ListDocuments(ctx context.Context) ([]types.DocumentInfo, error)
}

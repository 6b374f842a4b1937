package types

// DocumentChunk is a bounded span of extracted document text together with
// its provenance metadata. Chunks are immutable once indexed.
type DocumentChunk struct {
	ID       string        `json:"id"`
	Content  string        `json:"content"`
	Page     int           `json:"page"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata carries the provenance attached to every chunk at ingestion
// time. Custom holds page-level attributes (dimensions, rotation) that are
// only available from the primary extraction strategy.
type ChunkMetadata struct {
	Filename          string            `json:"filename"`
	DocumentID        string            `json:"document_id"`
	Page              int               `json:"page"`
	ChunkIndex        int               `json:"chunk_index"`
	TotalChunksInPage int               `json:"total_chunks_in_page"`
	UploadDate        string            `json:"upload_date"`
	Custom            map[string]string `json:"custom,omitempty"`
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
// Scores are Weaviate certainty values: higher means more similar.
type ScoredChunk struct {
	Chunk DocumentChunk `json:"chunk"`
	Score float64       `json:"score"`
}

// DocumentInfo is the derived per-document aggregate computed by grouping
// chunks on (document_id, filename). It is never stored.
type DocumentInfo struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	UploadDate  string `json:"upload_date"`
	ChunksCount int    `json:"chunks_count"`
	Status      string `json:"status"`
}

// DocumentServiceConfig contains configuration options for PDF processing
type DocumentServiceConfig struct {
	MaxChunkSize int // Maximum size for text chunks
	OverlapSize  int // Size of overlap between chunks
}

package types

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in the conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source is a citation back to a retrieved chunk. Content is truncated to
// 500 characters when the chunk is longer.
type Source struct {
	Content  string        `json:"content"`
	Page     int           `json:"page"`
	Score    float64       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChatResult is the outcome of one pass through the RAG pipeline.
// Sources are derived from the retrieved chunks regardless of whether
// generation produced usable text.
type ChatResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Handle stream responses
type StreamHandler func(chunk string)

package types

type ErrorResponse struct {
	Error string `json:"error"`
}

type UploadResponse struct {
	Message        string  `json:"message"`
	Filename       string  `json:"filename"`
	DocumentID     string  `json:"document_id"`
	ChunksCount    int     `json:"chunks_count"`
	ProcessingTime float64 `json:"processing_time"`
}

type ChatResponse struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	SessionID      string   `json:"session_id"`
	ProcessingTime float64  `json:"processing_time"`
}

type DocumentsResponse struct {
	Documents []DocumentInfo `json:"documents"`
}

type ChunksResponse struct {
	Chunks     []DocumentChunk `json:"chunks"`
	TotalCount int             `json:"total_count"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// FeedbackEntry is one persisted feedback record. Entries are append-only
// and never mutated.
type FeedbackEntry struct {
	Timestamp    string `json:"timestamp"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	Rating       int    `json:"rating"`
	FeedbackText string `json:"feedback_text,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

// FeedbackStats is recomputed from the feedback log on every read.
type FeedbackStats struct {
	TotalFeedback      int            `json:"total_feedback"`
	AverageRating      float64        `json:"average_rating"`
	RatingDistribution map[string]int `json:"rating_distribution"`
}

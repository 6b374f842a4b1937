package types

type ChatRequest struct {
	Question    string    `json:"question"`
	ChatHistory []Message `json:"chat_history,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
}

type FeedbackRequest struct {
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	Rating       int    `json:"rating"` // 1-5 scale
	FeedbackText string `json:"feedback_text,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}

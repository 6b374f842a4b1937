package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finqa-labs/finqa-be/service"
	"github.com/finqa-labs/finqa-be/types"
)

// Answerer is the slice of RAGService the chat handler needs.
type Answerer interface {
	GenerateAnswer(ctx context.Context, question string, history []types.Message) (*types.ChatResult, error)
}

type ChatHandler struct {
	rag      Answerer
	sessions *service.SessionService
}

func NewChatHandler(rag Answerer, sessions *service.SessionService) *ChatHandler {
	return &ChatHandler{
		rag:      rag,
		sessions: sessions,
	}
}

func (h *ChatHandler) HandleChat(c *gin.Context) {
	start := time.Now()

	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "question is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	// Server-side history wins; a client-provided transcript only seeds
	// a session the server has not seen yet.
	history := h.sessions.History(sessionID)
	if len(history) == 0 && len(req.ChatHistory) > 0 {
		history = req.ChatHistory
	}

	result, err := h.rag.GenerateAnswer(c.Request.Context(), req.Question, history)
	if err != nil {
		log.Printf("Error processing chat request for session %s: %v", sessionID, err)
		abortWithError(c, err)
		return
	}

	h.sessions.AppendExchange(sessionID, req.Question, result.Answer)

	c.JSON(http.StatusOK, types.ChatResponse{
		Answer:         result.Answer,
		Sources:        result.Sources,
		SessionID:      sessionID,
		ProcessingTime: time.Since(start).Seconds(),
	})
}

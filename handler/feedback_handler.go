package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finqa-labs/finqa-be/types"
)

// FeedbackStore persists feedback entries and recomputes their stats.
type FeedbackStore interface {
	Save(req types.FeedbackRequest) error
	Stats() (*types.FeedbackStats, error)
}

type FeedbackHandler struct {
	store FeedbackStore
}

func NewFeedbackHandler(store FeedbackStore) *FeedbackHandler {
	return &FeedbackHandler{
		store: store,
	}
}

func (h *FeedbackHandler) HandleSubmitFeedback(c *gin.Context) {
	var req types.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.Save(req); err != nil {
		log.Printf("Error submitting feedback: %v", err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.MessageResponse{Message: "Feedback submitted successfully"})
}

func (h *FeedbackHandler) HandleFeedbackStats(c *gin.Context) {
	stats, err := h.store.Stats()
	if err != nil {
		log.Printf("Error getting feedback stats: %v", err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

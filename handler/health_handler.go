package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finqa-labs/finqa-be/database"
	"github.com/finqa-labs/finqa-be/types"
)

type HealthHandler struct {
	index database.VectorIndex
}

func NewHealthHandler(index database.VectorIndex) *HealthHandler {
	return &HealthHandler{
		index: index,
	}
}

// HandleHealth gates readiness on vector-index initialization so traffic
// is only admitted once the store is usable.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	if !h.index.Ready() {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: "vector index not initialized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package handler

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/finqa-labs/finqa-be/database"
	"github.com/finqa-labs/finqa-be/types"
)

const defaultChunkLimit = 100

type DocumentHandler struct {
	index database.VectorIndex
}

func NewDocumentHandler(index database.VectorIndex) *DocumentHandler {
	return &DocumentHandler{
		index: index,
	}
}

func (h *DocumentHandler) HandleListDocuments(c *gin.Context) {
	documents, err := h.index.ListDocuments(c.Request.Context())
	if err != nil {
		log.Printf("Error retrieving documents: %v", err)
		abortWithError(c, err)
		return
	}
	if documents == nil {
		documents = []types.DocumentInfo{}
	}
	c.JSON(http.StatusOK, types.DocumentsResponse{Documents: documents})
}

func (h *DocumentHandler) HandleListChunks(c *gin.Context) {
	documentID := c.Query("document_id")

	page := 0
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid page"})
			return
		}
		page = parsed
	}

	limit := defaultChunkLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	chunks, err := h.index.ListChunks(c.Request.Context(), documentID, page, limit)
	if err != nil {
		log.Printf("Error retrieving chunks: %v", err)
		abortWithError(c, err)
		return
	}
	if chunks == nil {
		chunks = []types.DocumentChunk{}
	}
	c.JSON(http.StatusOK, types.ChunksResponse{
		Chunks:     chunks,
		TotalCount: len(chunks),
	})
}

func (h *DocumentHandler) HandleDeleteDocument(c *gin.Context) {
	documentID := c.Param("id")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "document id is required"})
		return
	}

	if err := h.index.DeleteByDocument(c.Request.Context(), documentID); err != nil {
		log.Printf("Error deleting document %s: %v", documentID, err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.MessageResponse{
		Message: fmt.Sprintf("Document %s deleted successfully", documentID),
	})
}

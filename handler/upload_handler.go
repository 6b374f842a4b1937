package handler

import (
	"context"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finqa-labs/finqa-be/service"
	"github.com/finqa-labs/finqa-be/types"
)

// Uploader is the slice of FileService the upload handler needs.
type Uploader interface {
	UploadPDF(ctx context.Context, file *multipart.FileHeader) (*service.UploadResult, error)
}

type UploadHandler struct {
	uploader Uploader
}

func NewUploadHandler(uploader Uploader) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
	}
}

func (h *UploadHandler) HandleUpload(c *gin.Context) {
	start := time.Now()

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "missing file"})
		return
	}

	result, err := h.uploader.UploadPDF(c.Request.Context(), file)
	if err != nil {
		log.Printf("Error processing upload %s: %v", file.Filename, err)
		abortWithError(c, err)
		return
	}

	log.Printf("Successfully processed %s: %d chunks created", result.Filename, result.ChunksCount)
	c.JSON(http.StatusOK, types.UploadResponse{
		Message:        "PDF uploaded and processed successfully",
		Filename:       result.Filename,
		DocumentID:     result.DocumentID,
		ChunksCount:    result.ChunksCount,
		ProcessingTime: time.Since(start).Seconds(),
	})
}

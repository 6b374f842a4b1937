package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finqa-labs/finqa-be/types"
)

// statusForError maps service error kinds to HTTP statuses. Unknown errors
// become a 500 with a generic message so internals never leak to callers.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrInvalidFileType):
		return http.StatusBadRequest, types.ErrInvalidFileType.Error()
	case errors.Is(err, types.ErrInvalidRating):
		return http.StatusBadRequest, types.ErrInvalidRating.Error()
	case errors.Is(err, types.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, types.ErrFileTooLarge.Error()
	case errors.Is(err, types.ErrExtraction):
		return http.StatusUnprocessableEntity, types.ErrExtraction.Error()
	case errors.Is(err, types.ErrNoContent):
		return http.StatusUnprocessableEntity, types.ErrNoContent.Error()
	case errors.Is(err, types.ErrGenerationTimeout):
		return http.StatusInternalServerError, "answer generation timed out"
	case errors.Is(err, types.ErrGeneration):
		return http.StatusInternalServerError, "failed to generate answer"
	case errors.Is(err, types.ErrIndexNotInitialized):
		return http.StatusInternalServerError, "service not ready"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, message := statusForError(err)
	c.JSON(status, types.ErrorResponse{Error: message})
}

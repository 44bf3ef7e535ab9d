package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/fractalflow/internal/store"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// handleServiceError maps store errors onto status codes. resource names the
// record in 404 messages.
func (h *Handler) handleServiceError(c *gin.Context, resource string, err error) {
	var verr *store.ValidationError

	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: verr.Error(), Field: verr.Field})
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Message: resource + " not found"})
	default:
		h.logger.Error("unhandled error", "path", c.Request.URL.Path, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
	}
}

func badRequest(c *gin.Context, field, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: message, Field: field})
}

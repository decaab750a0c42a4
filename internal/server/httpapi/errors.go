package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/server/staging"
	"github.com/gin-gonic/gin"
)

func statusOf(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, staging.ErrQueueFull):
		return http.StatusConflict
	case errors.Is(err, common.ErrCreate), errors.Is(err, common.ErrDelete):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abort writes err as JSON. Internal failures are logged and hidden from
// the client.
func (s *Server) abort(c *gin.Context, err error) {
	code := statusOf(err)
	msg := err.Error()
	switch code {
	case http.StatusInternalServerError:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	case http.StatusUnauthorized:
		msg = common.ErrUnauthorized.Error()
	}
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{common.ErrValidation}, args...)...)
}

package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/gin-gonic/gin"
)

const adminKey = "admin_user"

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error(c.Request.Context(), "request", args...)
			return
		}
		s.logger.Debug(c.Request.Context(), "request", args...)
	}
}

// requireAdmin rejects requests without a valid bearer session token.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			s.abort(c, common.ErrUnauthorized)
			return
		}
		user, err := s.svc.Admin.Verify(token)
		if err != nil {
			s.abort(c, common.ErrUnauthorized)
			return
		}
		c.Set(adminKey, user)
		c.Next()
	}
}

// limitBody caps the request body of upload routes.
func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.MaxUploadBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
		}
		c.Next()
	}
}

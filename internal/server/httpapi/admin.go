package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) login(c *gin.Context) {
	var req struct {
		User     string `json:"user"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, badRequest("%v", err))
		return
	}
	token, err := s.svc.Admin.Login(c.Request.Context(), req.User, req.Password)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) listSubmissions(c *gin.Context) {
	list, err := s.svc.Moderation.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		s.abort(c, err)
		return
	}
	if list == nil {
		list = []*models.Submission{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) stats(c *gin.Context) {
	counts, err := s.svc.Moderation.Stats(c.Request.Context())
	if err != nil {
		s.abort(c, err)
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{
		"pending":  counts[models.StatusPending],
		"approved": counts[models.StatusApproved],
		"rejected": counts[models.StatusRejected],
		"total":    total,
	})
}

func (s *Server) setStatus(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.abort(c, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, badRequest("%v", err))
		return
	}
	if err := s.svc.Moderation.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		s.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) updateBody(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.abort(c, err)
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, badRequest("%v", err))
		return
	}
	if err := s.svc.Moderation.UpdateBody(c.Request.Context(), id, req.Body); err != nil {
		s.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteSubmission(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.abort(c, err)
		return
	}
	if err := s.svc.Moderation.DeleteSubmission(c.Request.Context(), id); err != nil {
		s.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deletePhoto(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.abort(c, err)
		return
	}
	if err := s.svc.Moderation.DeletePhoto(c.Request.Context(), id); err != nil {
		s.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) uploadCarousel(c *gin.Context) {
	files, err := rawFiles(c)
	if err != nil {
		s.abort(c, err)
		return
	}
	report, err := s.svc.Carousel.Upload(c.Request.Context(), files)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, newCarouselResponse(s.svc.Carousel.Policy(), report))
}

func (s *Server) deleteCarousel(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		s.abort(c, err)
		return
	}
	if err := s.svc.Carousel.Delete(c.Request.Context(), id); err != nil {
		s.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// idParam returns the :id of a stored record in canonical form. Anything
// that is not a UUID cannot name a record.
func idParam(c *gin.Context) (string, error) {
	u, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", fmt.Errorf("%q: %w", c.Param("id"), common.ErrNotFound)
	}
	return u.String(), nil
}

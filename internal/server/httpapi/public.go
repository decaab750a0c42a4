package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) gallery(c *gin.Context) {
	page := 1
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.abort(c, badRequest("page must be a number"))
			return
		}
		page = n
	}
	p, err := s.svc.Gallery.Page(c.Request.Context(), page)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listCarousel(c *gin.Context) {
	list, err := s.svc.Carousel.List(c.Request.Context())
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/memorial/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) createDraft(c *gin.Context) {
	id := s.svc.Drafts.Create()
	c.JSON(http.StatusCreated, newDraftView(id, s.svc.Drafts.Policy(), nil))
}

func (s *Server) getDraft(c *gin.Context) {
	id := c.Param("id")
	items, err := s.svc.Drafts.Items(id)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, newDraftView(id, s.svc.Drafts.Policy(), items))
}

func (s *Server) discardDraft(c *gin.Context) {
	if err := s.svc.Drafts.Discard(c.Param("id")); err != nil {
		s.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) stageFiles(c *gin.Context) {
	id := c.Param("id")
	files, err := rawFiles(c)
	if err != nil {
		s.abort(c, err)
		return
	}

	res, err := s.svc.Drafts.Stage(id, files)
	if err != nil {
		s.abort(c, err)
		return
	}
	items, err := s.svc.Drafts.Items(id)
	if err != nil {
		s.abort(c, err)
		return
	}

	p := s.svc.Drafts.Policy()
	c.JSON(http.StatusOK, stageResponse{
		draftView:  newDraftView(id, p, items),
		Rejections: newRejections(p, res.Rejections),
	})
}

func (s *Server) updateCaption(c *gin.Context) {
	index, err := indexParam(c)
	if err != nil {
		s.abort(c, err)
		return
	}
	var req struct {
		Caption string `json:"caption"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, badRequest("%v", err))
		return
	}
	if err := s.svc.Drafts.Caption(c.Param("id"), index, req.Caption); err != nil {
		s.abort(c, err)
		return
	}
	s.getDraft(c)
}

func (s *Server) moveFile(c *gin.Context) {
	from, err := indexParam(c)
	if err != nil {
		s.abort(c, err)
		return
	}
	var req struct {
		To *int `json:"to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.To == nil {
		s.abort(c, badRequest("body must be {\"to\": <index>}"))
		return
	}
	if err := s.svc.Drafts.Move(c.Param("id"), from, *req.To); err != nil {
		s.abort(c, err)
		return
	}
	s.getDraft(c)
}

func (s *Server) removeFile(c *gin.Context) {
	index, err := indexParam(c)
	if err != nil {
		s.abort(c, err)
		return
	}
	if err := s.svc.Drafts.Remove(c.Param("id"), index); err != nil {
		s.abort(c, err)
		return
	}
	s.getDraft(c)
}

func (s *Server) submitDraft(c *gin.Context) {
	var form services.Draft
	if err := c.ShouldBindJSON(&form); err != nil {
		s.abort(c, badRequest("%v", err))
		return
	}
	report, err := s.svc.Drafts.Submit(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSubmitResponse(report))
}

func (s *Server) preview(c *gin.Context) {
	sf, err := s.svc.Drafts.Preview(c.Param("token"))
	if err != nil {
		s.abort(c, err)
		return
	}
	rc, err := sf.Open()
	if err != nil {
		s.abort(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, sf.Size(), sf.ContentType(), rc, map[string]string{
		"Cache-Control": "private, no-store",
	})
}

func indexParam(c *gin.Context) (int, error) {
	n, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, badRequest("index must be a number")
	}
	return n, nil
}

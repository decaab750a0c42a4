// Package httpapi exposes the memorial services over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/memorial/internal/logging"
	"github.com/dmitrijs2005/memorial/internal/server/models"
	"github.com/dmitrijs2005/memorial/internal/server/services"
	"github.com/dmitrijs2005/memorial/internal/server/staging"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Drafts interface {
	Create() string
	Items(id string) ([]staging.StagedFile, error)
	Stage(id string, files []staging.RawFile) (staging.Result, error)
	Remove(id string, index int) error
	Caption(id string, index int, text string) error
	Move(id string, from, to int) error
	Discard(id string) error
	Submit(ctx context.Context, id string, form services.Draft) (*services.SubmitReport, error)
	Preview(token string) (*staging.SpooledFile, error)
	Policy() staging.Policy
}

type Gallery interface {
	Page(ctx context.Context, page int) (*services.GalleryPage, error)
}

type Carousel interface {
	Upload(ctx context.Context, files []staging.RawFile) (*services.CarouselReport, error)
	List(ctx context.Context) ([]*models.CarouselPhoto, error)
	Delete(ctx context.Context, id string) error
	Policy() staging.Policy
}

type Moderation interface {
	List(ctx context.Context, status string) ([]*models.Submission, error)
	Stats(ctx context.Context) (map[models.Status]int, error)
	SetStatus(ctx context.Context, id, status string) error
	UpdateBody(ctx context.Context, id, body string) error
	DeleteSubmission(ctx context.Context, id string) error
	DeletePhoto(ctx context.Context, id string) error
}

type Admin interface {
	Login(ctx context.Context, user, password string) (string, error)
	Verify(token string) (string, error)
}

// Services groups what the handlers need.
type Services struct {
	Drafts     Drafts
	Gallery    Gallery
	Carousel   Carousel
	Moderation Moderation
	Admin      Admin
}

type Options struct {
	Address        string
	AllowedOrigins []string
	// MaxUploadBytes caps a whole upload request body.
	MaxUploadBytes int64
	Gatherer       prometheus.Gatherer
}

type Server struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
	svc     Services
	opts    Options
}

func NewServer(opts Options, svc Services, logger logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		address: opts.Address,
		engine:  gin.New(),
		logger:  logger.With("module", "http_server"),
		svc:     svc,
		opts:    opts,
	}
	s.routes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), s.requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(s.opts.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.opts.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	gatherer := s.opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		drafts := api.Group("/drafts")
		drafts.POST("", s.createDraft)
		drafts.GET("/:id", s.getDraft)
		drafts.DELETE("/:id", s.discardDraft)
		drafts.POST("/:id/files", s.limitBody(), s.stageFiles)
		drafts.PATCH("/:id/files/:index", s.updateCaption)
		drafts.POST("/:id/files/:index/move", s.moveFile)
		drafts.DELETE("/:id/files/:index", s.removeFile)
		drafts.POST("/:id/submit", s.submitDraft)

		api.GET("/previews/:token", s.preview)
		api.GET("/gallery", s.gallery)
		api.GET("/carousel", s.listCarousel)

		api.POST("/admin/login", s.login)
		admin := api.Group("/admin", s.requireAdmin())
		admin.GET("/submissions", s.listSubmissions)
		admin.GET("/stats", s.stats)
		admin.PATCH("/submissions/:id/status", s.setStatus)
		admin.PATCH("/submissions/:id/body", s.updateBody)
		admin.DELETE("/submissions/:id", s.deleteSubmission)
		admin.DELETE("/photos/:id", s.deletePhoto)
		admin.POST("/carousel", s.limitBody(), s.uploadCarousel)
		admin.DELETE("/carousel/:id", s.deleteCarousel)
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Package server assembles the memorial backend: database and migrations,
// object storage, services and the HTTP API, plus the draft janitor.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/memorial/internal/logging"
	"github.com/dmitrijs2005/memorial/internal/server/auth"
	"github.com/dmitrijs2005/memorial/internal/server/config"
	"github.com/dmitrijs2005/memorial/internal/server/httpapi"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/memorial/internal/server/services"
	"github.com/dmitrijs2005/memorial/internal/server/staging"
	"github.com/dmitrijs2005/memorial/internal/server/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const metricsNamespace = "memorial"

// Seams for tests.
var (
	openDB               = repomanager.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newStorageGateway    = func(ctx context.Context, c storage.Config, o storage.Observer) (storage.Gateway, error) {
		return storage.NewS3Gateway(ctx, c, o)
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	drafts *services.DraftService
	server *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app, err := newApp(ctx, c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer, err := storage.NewPrometheusObserver(metricsNamespace, registry)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	gw, err := newStorageGateway(ctx, storage.Config{
		Region:        c.S3Region,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		BaseEndpoint:  c.S3BaseEndpoint,
		Bucket:        c.S3Bucket,
		PublicBaseURL: c.S3PublicBaseURL,
	}, observer)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	secret, generated, err := auth.SessionSecret(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("session secret: %w", err)
	}
	if generated {
		logger.Warn(ctx, "no secret key configured, using a random one; admin sessions end on restart")
	}

	spool, err := staging.NewSpool(c.SpoolDir)
	if err != nil {
		return nil, fmt.Errorf("spool: %w", err)
	}

	gallery, err := services.NewGalleryService(db, rm, gw, c.GalleryPageSize, c.GalleryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("gallery: %w", err)
	}
	submissions := services.NewSubmissionService(db, rm, gw, logger)
	policy := staging.Policy{MaxCount: c.MaxPhotos, MaxBytes: c.MaxFileBytes, AllowVideo: c.AllowVideo}
	drafts := services.NewDraftService(policy, spool, submissions, c.DraftTTL, logger)

	srv := httpapi.NewServer(httpapi.Options{
		Address:        c.HTTPAddr,
		AllowedOrigins: c.AllowedOrigins,
		MaxUploadBytes: maxUploadBytes(c),
		Gatherer:       registry,
	}, httpapi.Services{
		Drafts:     drafts,
		Gallery:    gallery,
		Carousel:   services.NewCarouselService(db, rm, gw, logger, c.CarouselRows, c.CarouselCapacity, c.CarouselMaxBytes),
		Moderation: services.NewModerationService(db, rm, gw, logger, gallery.Invalidate),
		Admin:      services.NewAdminService(c.AdminUser, c.AdminPasswordHash, secret, c.AdminTokenTTL, logger),
	}, logger)

	return &App{config: c, logger: logger, db: db, drafts: drafts, server: srv}, nil
}

// maxUploadBytes caps one upload request: a full batch of the larger file
// limit plus room for the multipart framing.
func maxUploadBytes(c *config.Config) int64 {
	per := max(c.MaxFileBytes, c.CarouselMaxBytes)
	count := int64(max(c.MaxPhotos, c.CarouselRows*c.CarouselCapacity))
	return per*count + 1<<20
}

// Run serves HTTP and sweeps idle drafts until ctx is done or either fails.
// Staged files and the database are released before it returns.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(gctx)
	})
	g.Go(func() error {
		return app.drafts.RunJanitor(gctx, app.config.JanitorInterval)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	app.logger.Info(ctx, "Stopping app...")
	return errors.Join(err, app.drafts.Close(), app.db.Close())
}

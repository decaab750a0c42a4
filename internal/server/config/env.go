package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "MEMORIAL_"

// dotenvFiles are loaded into the process environment when present.
// Variables that are already set are never overridden.
var dotenvFiles = []string{".env"}

var lookupEnv = os.LookupEnv

func parseEnv(c *Config) error {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	e := envReader{}
	e.str("HTTP_ADDR", &c.HTTPAddr)
	e.str("DATABASE_DSN", &c.DatabaseDSN)
	e.str("LOG_LEVEL", &c.LogLevel)
	e.list("ALLOWED_ORIGINS", &c.AllowedOrigins)

	e.str("SPOOL_DIR", &c.SpoolDir)
	e.int("MAX_PHOTOS", &c.MaxPhotos)
	e.int64("MAX_FILE_BYTES", &c.MaxFileBytes)
	e.bool("ALLOW_VIDEO", &c.AllowVideo)
	e.duration("DRAFT_TTL", &c.DraftTTL)
	e.duration("JANITOR_INTERVAL", &c.JanitorInterval)

	e.int("CAROUSEL_ROWS", &c.CarouselRows)
	e.int("CAROUSEL_CAPACITY", &c.CarouselCapacity)
	e.int64("CAROUSEL_MAX_BYTES", &c.CarouselMaxBytes)

	e.int("GALLERY_PAGE_SIZE", &c.GalleryPageSize)
	e.int("GALLERY_CACHE_SIZE", &c.GalleryCacheSize)

	e.str("ADMIN_USER", &c.AdminUser)
	e.str("ADMIN_PASSWORD_HASH", &c.AdminPasswordHash)
	e.str("SECRET_KEY", &c.SecretKey)
	e.duration("ADMIN_TOKEN_TTL", &c.AdminTokenTTL)

	e.str("S3_ACCESS_KEY", &c.S3AccessKey)
	e.str("S3_SECRET_KEY", &c.S3SecretKey)
	e.str("S3_BUCKET", &c.S3Bucket)
	e.str("S3_REGION", &c.S3Region)
	e.str("S3_BASE_ENDPOINT", &c.S3BaseEndpoint)
	e.str("S3_PUBLIC_BASE_URL", &c.S3PublicBaseURL)

	return errors.Join(e.errs...)
}

// envReader collects parse errors so every bad variable is reported at once.
type envReader struct {
	errs []error
}

func (e *envReader) lookup(name string) (string, bool) {
	return lookupEnv(EnvPrefix + name)
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) list(name string, dst *[]string) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}

func (e *envReader) int(name string, dst *int) {
	if v, ok := e.lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) int64(name string, dst *int64) {
	if v, ok := e.lookup(name); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) bool(name string, dst *bool) {
	if v, ok := e.lookup(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(name string, dst *time.Duration) {
	if v, ok := e.lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = d
	}
}

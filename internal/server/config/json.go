package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/memorial/internal/flagx"
	"github.com/dmitrijs2005/memorial/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Intervals use timex.Duration so
// they may be written as "90s" or as integer nanoseconds. Keys missing from
// the file keep their current value.
type JsonConfig struct {
	HTTPAddr       string   `json:"http_addr"`
	DatabaseDSN    string   `json:"database_dsn"`
	LogLevel       string   `json:"log_level"`
	AllowedOrigins []string `json:"allowed_origins"`

	SpoolDir        string         `json:"spool_dir"`
	MaxPhotos       int            `json:"max_photos"`
	MaxFileBytes    int64          `json:"max_file_bytes"`
	AllowVideo      bool           `json:"allow_video"`
	DraftTTL        timex.Duration `json:"draft_ttl"`
	JanitorInterval timex.Duration `json:"janitor_interval"`

	CarouselRows     int   `json:"carousel_rows"`
	CarouselCapacity int   `json:"carousel_capacity"`
	CarouselMaxBytes int64 `json:"carousel_max_bytes"`

	GalleryPageSize  int `json:"gallery_page_size"`
	GalleryCacheSize int `json:"gallery_cache_size"`

	AdminUser         string         `json:"admin_user"`
	AdminPasswordHash string         `json:"admin_password_hash"`
	SecretKey         string         `json:"secret_key"`
	AdminTokenTTL     timex.Duration `json:"admin_token_ttl"`

	S3AccessKey     string `json:"s3_access_key"`
	S3SecretKey     string `json:"s3_secret_key"`
	S3Bucket        string `json:"s3_bucket"`
	S3Region        string `json:"s3_region"`
	S3BaseEndpoint  string `json:"s3_base_endpoint"`
	S3PublicBaseURL string `json:"s3_public_base_url"`
}

func parseJSON(c *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	j := toJSON(c)
	if err := json.Unmarshal(data, j); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	fromJSON(c, j)
	return nil
}

func toJSON(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:          c.HTTPAddr,
		DatabaseDSN:       c.DatabaseDSN,
		LogLevel:          c.LogLevel,
		AllowedOrigins:    c.AllowedOrigins,
		SpoolDir:          c.SpoolDir,
		MaxPhotos:         c.MaxPhotos,
		MaxFileBytes:      c.MaxFileBytes,
		AllowVideo:        c.AllowVideo,
		DraftTTL:          timex.Duration{Duration: c.DraftTTL},
		JanitorInterval:   timex.Duration{Duration: c.JanitorInterval},
		CarouselRows:      c.CarouselRows,
		CarouselCapacity:  c.CarouselCapacity,
		CarouselMaxBytes:  c.CarouselMaxBytes,
		GalleryPageSize:   c.GalleryPageSize,
		GalleryCacheSize:  c.GalleryCacheSize,
		AdminUser:         c.AdminUser,
		AdminPasswordHash: c.AdminPasswordHash,
		SecretKey:         c.SecretKey,
		AdminTokenTTL:     timex.Duration{Duration: c.AdminTokenTTL},
		S3AccessKey:       c.S3AccessKey,
		S3SecretKey:       c.S3SecretKey,
		S3Bucket:          c.S3Bucket,
		S3Region:          c.S3Region,
		S3BaseEndpoint:    c.S3BaseEndpoint,
		S3PublicBaseURL:   c.S3PublicBaseURL,
	}
}

func fromJSON(c *Config, j *JsonConfig) {
	c.HTTPAddr = j.HTTPAddr
	c.DatabaseDSN = j.DatabaseDSN
	c.LogLevel = j.LogLevel
	c.AllowedOrigins = j.AllowedOrigins
	c.SpoolDir = j.SpoolDir
	c.MaxPhotos = j.MaxPhotos
	c.MaxFileBytes = j.MaxFileBytes
	c.AllowVideo = j.AllowVideo
	c.DraftTTL = j.DraftTTL.Duration
	c.JanitorInterval = j.JanitorInterval.Duration
	c.CarouselRows = j.CarouselRows
	c.CarouselCapacity = j.CarouselCapacity
	c.CarouselMaxBytes = j.CarouselMaxBytes
	c.GalleryPageSize = j.GalleryPageSize
	c.GalleryCacheSize = j.GalleryCacheSize
	c.AdminUser = j.AdminUser
	c.AdminPasswordHash = j.AdminPasswordHash
	c.SecretKey = j.SecretKey
	c.AdminTokenTTL = j.AdminTokenTTL.Duration
	c.S3AccessKey = j.S3AccessKey
	c.S3SecretKey = j.S3SecretKey
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.S3PublicBaseURL = j.S3PublicBaseURL
}

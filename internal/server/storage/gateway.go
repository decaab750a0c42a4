// Package storage puts staged media into the public object store and maps
// object keys to the URLs the site renders.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// CarouselOwner namespaces hero carousel objects apart from submissions.
const CarouselOwner = "hero-carousel"

// CacheControl is sent with every stored object.
const CacheControl = "max-age=3600"

// Gateway stores and removes public objects.
type Gateway interface {
	// Upload stores body under key and returns the key. An existing object
	// under the same key is never replaced.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// ObjectKey builds "{owner}/{uuid}.{ext}". The extension comes from the file
// name, else from the content type, else "bin".
func ObjectKey(owner, filename, contentType string) string {
	return fmt.Sprintf("%s/%s.%s", owner, uuid.NewString(), extension(filename, contentType))
}

func extension(filename, contentType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		return ext
	}
	if m := mimetype.Lookup(contentType); m != nil && m.Extension() != "" {
		return strings.TrimPrefix(m.Extension(), ".")
	}
	return "bin"
}

// publicURL joins the public base, bucket and key.
func publicURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.TrimLeft(key, "/")
}

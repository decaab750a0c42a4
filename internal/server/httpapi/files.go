package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/memorial/internal/server/staging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

const filesField = "files"

// rawFiles turns the "files" parts of a multipart request into candidates.
func rawFiles(c *gin.Context) ([]staging.RawFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("upload: %w", err)
		}
		return nil, badRequest("multipart form: %v", err)
	}
	headers := form.File[filesField]
	if len(headers) == 0 {
		return nil, badRequest("no %q parts", filesField)
	}

	files := make([]staging.RawFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, staging.RawFile{
			Name:        fh.Filename,
			ContentType: contentType(fh),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files, nil
}

// contentType trusts the declared part type unless it is missing or
// generic, in which case the content is sniffed.
func contentType(fh *multipart.FileHeader) string {
	declared := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	f, err := fh.Open()
	if err != nil {
		return declared
	}
	defer f.Close()

	m, err := mimetype.DetectReader(f)
	if err != nil {
		return declared
	}
	return m.String()
}

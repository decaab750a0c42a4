// Package staging holds the files a visitor has selected but not yet
// submitted: the validator that screens a batch, the spool and preview
// handles for accepted files, and the ordered queue that owns them.
package staging

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// RawFile is a candidate file as received from the client. Open may be
// called more than once; each call returns a fresh reader.
type RawFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromBytes builds a RawFile over an in-memory payload.
func FromBytes(name, contentType string, data []byte) RawFile {
	return RawFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Reason explains why a candidate was not accepted.
type Reason string

const (
	ReasonNotAnImage   Reason = "not_an_image"
	ReasonTooLarge     Reason = "too_large"
	ReasonLimitReached Reason = "limit_reached"
)

// Message renders the reason for a visitor.
func (r Reason) Message(p Policy) string {
	switch r {
	case ReasonNotAnImage:
		if p.AllowVideo {
			return "only image or video files can be uploaded"
		}
		return "only image files can be uploaded"
	case ReasonTooLarge:
		return fmt.Sprintf("each file must be under %dMB", p.MaxBytes>>20)
	case ReasonLimitReached:
		return fmt.Sprintf("maximum %d files allowed", p.MaxCount)
	default:
		return string(r)
	}
}

// Policy bounds one staging area.
type Policy struct {
	MaxCount   int
	MaxBytes   int64
	AllowVideo bool
}

// Rejection pairs a refused candidate with the reason.
type Rejection struct {
	File   RawFile
	Reason Reason
}

// Result is the outcome of screening one batch.
type Result struct {
	Accepted   []RawFile
	Rejections []Rejection
}

// Validate screens candidates in input order against p, given that
// alreadyStaged files are staged already. Type is checked first, then size,
// then capacity. Once capacity is reached every later candidate that passes
// the type and size checks is rejected with ReasonLimitReached.
//
// Validate is pure: it never opens a file.
func Validate(candidates []RawFile, alreadyStaged int, p Policy) Result {
	var res Result

	for _, f := range candidates {
		switch {
		case !AcceptsContentType(f.ContentType, p.AllowVideo):
			res.Rejections = append(res.Rejections, Rejection{File: f, Reason: ReasonNotAnImage})
		case f.Size > p.MaxBytes:
			res.Rejections = append(res.Rejections, Rejection{File: f, Reason: ReasonTooLarge})
		case alreadyStaged+len(res.Accepted) >= p.MaxCount:
			res.Rejections = append(res.Rejections, Rejection{File: f, Reason: ReasonLimitReached})
		default:
			res.Accepted = append(res.Accepted, f)
		}
	}

	return res
}

// AcceptsContentType reports whether a declared content type is an image,
// or a video when allowVideo is set.
func AcceptsContentType(contentType string, allowVideo bool) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(ct, "image/") {
		return true
	}
	return allowVideo && IsVideo(ct)
}

// IsVideo reports whether contentType names a video.
func IsVideo(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/")
}

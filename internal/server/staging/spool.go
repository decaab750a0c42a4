package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/memorial/internal/filex"
	"github.com/google/uuid"
)

// Spool keeps the content of staged files on local disk until they are
// promoted or discarded.
type Spool struct {
	dir string
}

// NewSpool prepares dir and drops whatever a previous process left there.
func NewSpool(dir string) (*Spool, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("spool dir: %w", err)
	}
	if err := filex.RemoveContents(abs); err != nil {
		return nil, fmt.Errorf("spool cleanup: %w", err)
	}
	return &Spool{dir: abs}, nil
}

// Dir returns the absolute spool directory.
func (s *Spool) Dir() string {
	return s.dir
}

// Write copies f's content into a new spool file.
func (s *Spool) Write(f RawFile) (*SpooledFile, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("%s: no content", f.Name)
	}

	src, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer src.Close()

	path := filepath.Join(s.dir, uuid.NewString())
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("spool %s: %w", f.Name, err)
	}

	return &SpooledFile{path: path, size: n, contentType: f.ContentType}, nil
}

// SpooledFile is the source handle of one staged file.
type SpooledFile struct {
	path        string
	size        int64
	contentType string
}

func (sf *SpooledFile) Size() int64 {
	return sf.size
}

func (sf *SpooledFile) ContentType() string {
	return sf.contentType
}

// Open returns a reader over the spooled bytes.
func (sf *SpooledFile) Open() (io.ReadCloser, error) {
	return os.Open(sf.path)
}

// Remove deletes the spooled bytes. Removing twice is not an error.
func (sf *SpooledFile) Remove() error {
	if err := os.Remove(sf.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

package staging

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpool_DropsLeftovers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale"), []byte("x"), 0o600))

	s, err := NewSpool(dir)
	require.NoError(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpool_WriteOpenRemove(t *testing.T) {
	s, err := NewSpool(t.TempDir())
	require.NoError(t, err)

	sf, err := s.Write(FromBytes("a.png", "image/png", []byte("pixels")))
	require.NoError(t, err)
	assert.Equal(t, int64(6), sf.Size())
	assert.Equal(t, "image/png", sf.ContentType())

	rc, err := sf.Open()
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "pixels", string(b))

	require.NoError(t, sf.Remove())
	require.NoError(t, sf.Remove(), "second remove is a no-op")
	_, err = sf.Open()
	assert.Error(t, err)
}

func TestSpool_WriteWithoutContent(t *testing.T) {
	s, err := NewSpool(t.TempDir())
	require.NoError(t, err)

	_, err = s.Write(RawFile{Name: "a.png", ContentType: "image/png"})
	assert.ErrorContains(t, err, "no content")
}

func TestPreviews_IssueResolveRevoke(t *testing.T) {
	p := NewPreviews()
	sf := &SpooledFile{path: "/nowhere", size: 1}

	token := p.Issue(sf)
	other := p.Issue(sf)
	assert.NotEqual(t, token, other)
	assert.Equal(t, 2, p.Len())

	got, err := p.Resolve(token)
	require.NoError(t, err)
	assert.Same(t, sf, got)

	p.Revoke(token)
	p.Revoke(token)
	_, err = p.Resolve(token)
	assert.ErrorIs(t, err, ErrPreviewRevoked)
	assert.Equal(t, 1, p.Len())
}

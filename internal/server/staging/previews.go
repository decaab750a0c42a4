package staging

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrPreviewRevoked is returned for unknown or already revoked tokens.
var ErrPreviewRevoked = errors.New("preview revoked")

// Previews issues revocable tokens through which staged files can be shown
// back to the visitor before they are submitted.
type Previews struct {
	mu     sync.RWMutex
	tokens map[string]*SpooledFile
}

func NewPreviews() *Previews {
	return &Previews{tokens: make(map[string]*SpooledFile)}
}

// Issue returns a new token resolving to sf.
func (p *Previews) Issue(sf *SpooledFile) string {
	token := uuid.NewString()

	p.mu.Lock()
	p.tokens[token] = sf
	p.mu.Unlock()

	return token
}

func (p *Previews) Resolve(token string) (*SpooledFile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sf, ok := p.tokens[token]
	if !ok {
		return nil, ErrPreviewRevoked
	}
	return sf, nil
}

// Revoke invalidates token. Revoking an unknown token is a no-op.
func (p *Previews) Revoke(token string) {
	p.mu.Lock()
	delete(p.tokens, token)
	p.mu.Unlock()
}

// Len is the number of live tokens.
func (p *Previews) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tokens)
}

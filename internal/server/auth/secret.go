package auth

import (
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/memorial/internal/common"
)

// MinSecretKeyLength is the shortest accepted session signing key in bytes.
const MinSecretKeyLength = 32

// SessionSecret returns the signing key for admin sessions. An empty
// configured key yields a random one, reported by generated, so sessions
// do not survive a restart. A configured key shorter than
// MinSecretKeyLength is refused.
func SessionSecret(configured string) (key []byte, generated bool, err error) {
	if configured == "" {
		key = make([]byte, MinSecretKeyLength)
		if _, err := rand.Read(key); err != nil {
			return nil, false, fmt.Errorf("generate secret key: %w", err)
		}
		return key, true, nil
	}
	if len(configured) < MinSecretKeyLength {
		return nil, false, fmt.Errorf("%w: secret key must be at least %d bytes", common.ErrValidation, MinSecretKeyLength)
	}
	return []byte(configured), false, nil
}

package key

import (
	"context"
	"crypto/rsa"
	"time"
)

type SignedToken struct {
	KeyID     string
	Header    string
	Payload   string
	Signature string
}

// Token returns the compact serialization header.payload.signature.
func (t *SignedToken) Token() string {
	return t.Header + "." + t.Payload + "." + t.Signature
}

type PublicKey struct {
	KeyID string
	Key   []byte
}

type SigningKey struct {
	PrivateKey   *rsa.PrivateKey
	PublicKeyDER []byte
	KeyID        string
}

type KeyManager interface {
	Sign(ctx context.Context, encodedClaims string) (*SignedToken, error)
	PublicKeys() []*PublicKey
	Expiration() time.Duration
	LoadedAt() time.Time
}

package key

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var _ KeyManager = (*staticKeyManager)(nil)

// staticKeyManager signs with a single key loaded at startup. GitHub App
// keys are issued by GitHub, so there is nothing to rotate locally.
type staticKeyManager struct {
	logger *slog.Logger

	key      *SigningKey
	header   string
	expiry   time.Duration
	loadedAt time.Time
}

func NewStaticKeyManager(
	logger *slog.Logger,
	signingKey *SigningKey,
	expiry time.Duration,
) (KeyManager, error) {
	if signingKey == nil || signingKey.PrivateKey == nil {
		return nil, errors.New("signing key is required")
	}
	if expiry < time.Second || expiry%time.Second != 0 {
		return nil, fmt.Errorf("expiry must be a positive whole number of seconds, got %s", expiry)
	}

	header := map[string]string{
		"alg": jwt.SigningMethodRS256.Alg(),
		"typ": "JWT",
		"kid": signingKey.KeyID,
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}

	logger.Info("Loaded signing key", slog.String("key-id", signingKey.KeyID))

	return &staticKeyManager{
		logger:   logger,
		key:      signingKey,
		header:   base64.RawURLEncoding.EncodeToString(headerJSON),
		expiry:   expiry,
		loadedAt: time.Now(),
	}, nil
}

func (s *staticKeyManager) Sign(ctx context.Context, encodedClaims string) (*SignedToken, error) {
	signature, err := jwt.SigningMethodRS256.Sign(s.header+"."+encodedClaims, s.key.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign claims: %w", err)
	}

	return &SignedToken{
		KeyID:     s.key.KeyID,
		Header:    s.header,
		Payload:   encodedClaims,
		Signature: base64.RawURLEncoding.EncodeToString(signature),
	}, nil
}

func (s *staticKeyManager) PublicKeys() []*PublicKey {
	return []*PublicKey{
		{
			KeyID: s.key.KeyID,
			Key:   s.key.PublicKeyDER,
		},
	}
}

func (s *staticKeyManager) Expiration() time.Duration {
	return s.expiry
}

func (s *staticKeyManager) LoadedAt() time.Time {
	return s.loadedAt
}

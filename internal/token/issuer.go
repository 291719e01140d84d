// Package token issues short-lived RS256 JWTs for GitHub App authentication.
package token

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zarvd/github-app-signer/internal/key"
)

// DefaultValidity is the lifetime of an issued token. GitHub rejects app
// tokens that expire more than ten minutes in the future.
const DefaultValidity = 10 * time.Minute

// CheckValidity reports whether d can be carried by the iat and exp claims,
// which hold whole seconds.
func CheckValidity(d time.Duration) error {
	if d < time.Second {
		return fmt.Errorf("validity must be at least 1s, got %s", d)
	}
	if d%time.Second != 0 {
		return fmt.Errorf("validity must be a whole number of seconds, got %s", d)
	}
	return nil
}

type Option func(*Issuer)

// WithClock replaces the clock read once per issued token.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithValidity sets the token lifetime. Values rejected by CheckValidity are
// ignored.
func WithValidity(d time.Duration) Option {
	return func(i *Issuer) {
		if CheckValidity(d) == nil {
			i.validity = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Issuer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// Issuer creates signed tokens. It holds no key material and is safe for
// concurrent use.
type Issuer struct {
	logger   *slog.Logger
	now      func() time.Time
	validity time.Duration
}

func NewIssuer(opts ...Option) *Issuer {
	i := &Issuer{
		now:      time.Now,
		validity: DefaultValidity,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) Validity() time.Duration {
	return i.validity
}

// CreateToken signs a JWT asserting issuer with the PEM encoded PKCS#8 RSA
// key. Key errors are returned as *key.InvalidPrivateKeyError.
func (i *Issuer) CreateToken(issuer string, privateKeyPEM string) (string, error) {
	privateKey, err := key.DecodeRSAPrivateKey(privateKeyPEM)
	if err != nil {
		return "", err
	}

	issuedAt := i.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(i.validity)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	i.log().Debug("Issued token",
		slog.String("issuer", issuer),
		slog.Time("expires-at", expiresAt),
	)
	return signed, nil
}

// log falls back to the current slog default when no logger was set.
func (i *Issuer) log() *slog.Logger {
	if i.logger != nil {
		return i.logger
	}
	return slog.Default()
}

var defaultIssuer = NewIssuer()

// CreateToken signs a token with the system clock and DefaultValidity.
func CreateToken(issuer string, privateKeyPEM string) (string, error) {
	return defaultIssuer.CreateToken(issuer, privateKeyPEM)
}

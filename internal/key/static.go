package key

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
)

// DecodeRSAPrivateKey decodes a PEM encoded PKCS#8 RSA private key.
func DecodeRSAPrivateKey(p string) (*rsa.PrivateKey, error) {
	der, err := DecodePEM(p)
	if err != nil {
		return nil, err
	}
	return ParseRSAPrivateKey(der)
}

// ParseRSAPrivateKey parses DER bytes holding a PKCS#8 RSA private key.
// The format is decided by parsing, never by looking at the PEM text.
func ParseRSAPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		if _, pkcs1Err := x509.ParsePKCS1PrivateKey(der); pkcs1Err == nil {
			return nil, wrongFormatError()
		}
		return nil, malformedError(err)
	}

	privateKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, unsupportedError(parsed)
	}
	return privateKey, nil
}

// NewSigningKey decodes p and prepares it for signing. An empty keyID is
// replaced by the base64url SHA-256 of the public key.
func NewSigningKey(p string, keyID string) (*SigningKey, error) {
	privateKey, err := DecodeRSAPrivateKey(p)
	if err != nil {
		return nil, err
	}
	publicKeyDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	if keyID == "" {
		sum := sha256.Sum256(publicKeyDER)
		keyID = base64.RawURLEncoding.EncodeToString(sum[:])
	}

	return &SigningKey{
		PrivateKey:   privateKey,
		PublicKeyDER: publicKeyDER,
		KeyID:        keyID,
	}, nil
}

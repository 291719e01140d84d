package key

import (
	"errors"
	"fmt"
)

const pkcs8ConvertCommand = "openssl pkcs8 -topk8 -inform PEM -outform PEM -in current-key.pem -out new-key.pem -nocrypt"

var (
	// ErrKeyDecode is reported when the key body is not valid base64. The
	// message is lowercase, so match it case-insensitively or use errors.Is.
	ErrKeyDecode = errors.New("failed to decode private key")
	// ErrWrongKeyFormat is reported for PKCS#1 keys, which must be converted to PKCS#8.
	ErrWrongKeyFormat = errors.New("private key must be in PKCS#8 format")
	// ErrMalformedKey is reported when the decoded bytes are neither PKCS#8 nor PKCS#1.
	ErrMalformedKey = errors.New("malformed private key")
	// ErrUnsupportedKey is reported for PKCS#8 keys that do not hold an RSA key.
	ErrUnsupportedKey = errors.New("unsupported private key type")
)

// InvalidPrivateKeyError is returned for every private key that cannot be
// used for RS256 signing. Kind is one of the Err* values above and can be
// matched with errors.Is.
type InvalidPrivateKeyError struct {
	Kind   error
	Reason string
	Err    error
}

func (e *InvalidPrivateKeyError) Error() string {
	msg := e.Kind.Error()
	if e.Reason != "" {
		msg += ", " + e.Reason
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *InvalidPrivateKeyError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func decodeError(err error) error {
	return &InvalidPrivateKeyError{Kind: ErrKeyDecode, Err: err}
}

func wrongFormatError() error {
	return &InvalidPrivateKeyError{
		Kind:   ErrWrongKeyFormat,
		Reason: "to convert it from PKCS#1 use: " + pkcs8ConvertCommand,
	}
}

func malformedError(err error) error {
	return &InvalidPrivateKeyError{Kind: ErrMalformedKey, Err: err}
}

func unsupportedError(v any) error {
	return &InvalidPrivateKeyError{Kind: ErrUnsupportedKey, Reason: fmt.Sprintf("got %T, want RSA", v)}
}

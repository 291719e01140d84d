package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// validateClaims checks that encoded is a base64url JSON object before it is
// signed.
func validateClaims(encoded string) error {
	if encoded == "" {
		return errors.New("claims are empty")
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("failed to decode claims: %w", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil {
		return fmt.Errorf("claims are not a JSON object: %w", err)
	}
	if claims == nil {
		return errors.New("claims are not a JSON object")
	}
	return nil
}

package key

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var pemBoundary = regexp.MustCompile(`-----(BEGIN|END) [^-]*-----`)

// DecodePEM strips the PEM boundaries and all whitespace from p and decodes
// what is left as standard base64. Line endings may be \n, \r or \r\n.
func DecodePEM(p string) ([]byte, error) {
	body := pemBoundary.ReplaceAllString(p, "")
	body = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, body)
	if body == "" {
		return nil, decodeError(errors.New("no key data"))
	}

	der, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, decodeError(err)
	}
	return der, nil
}

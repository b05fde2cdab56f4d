package catalog

import (
	"errors"
	"net/mail"
	"strings"
)

const maxEmailBytes = 254

var errMalformedEmail = errors.New("malformed email address")

// NormalizeEmail trims and lowercases a bare address. Display-name forms such as
// "Alice <a@x.com>" are rejected.
func NormalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" || len(trimmed) > maxEmailBytes {
		return "", errMalformedEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Name != "" || addr.Address != trimmed {
		return "", errMalformedEmail
	}
	if !strings.Contains(addr.Address[strings.LastIndexByte(addr.Address, '@')+1:], ".") {
		return "", errMalformedEmail
	}

	return strings.ToLower(addr.Address), nil
}

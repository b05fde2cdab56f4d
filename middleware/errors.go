package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/authcore"
)

const (
	msgDuplicate    = "user already exists"
	msgInvalidInput = "invalid input"
	msgCredentials  = "incorrect credentials"
	msgTwoFactor    = "invalid or expired code"
	msgUnauthorized = "unauthorized"
	msgLocked       = "too many attempts"
	msgUnavailable  = "service unavailable"
)

// Status returns the HTTP status and client message for an engine error.
// Messages are generic per family so responses never tell a wrong password
// from an unknown account, or a wrong code from an expired one.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, authcore.ErrDuplicateEmail):
		return http.StatusConflict, msgDuplicate
	case errors.Is(err, authcore.ErrInvalidInput):
		return http.StatusBadRequest, msgInvalidInput
	case errors.Is(err, authcore.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgCredentials
	case errors.Is(err, authcore.ErrChallengeExpired),
		errors.Is(err, authcore.ErrChallengeInvalid):
		return http.StatusUnauthorized, msgTwoFactor
	case errors.Is(err, authcore.ErrTokenExpired),
		errors.Is(err, authcore.ErrTokenInvalid),
		errors.Is(err, authcore.ErrTokenRevoked):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, authcore.ErrLocked):
		return http.StatusTooManyRequests, msgLocked
	default:
		return http.StatusServiceUnavailable, msgUnavailable
	}
}

// WriteError writes err as a JSON error body with the status from Status.
func WriteError(w http.ResponseWriter, err error) {
	status, msg := Status(err)
	writeJSONError(w, status, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

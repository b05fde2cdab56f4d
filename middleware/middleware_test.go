package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/authcore"
)

type validatorFunc func(ctx context.Context, token string) (*authcore.Claims, error)

func (f validatorFunc) Validate(ctx context.Context, token string) (*authcore.Claims, error) {
	return f(ctx, token)
}

func TestGuard(t *testing.T) {
	v := validatorFunc(func(_ context.Context, token string) (*authcore.Claims, error) {
		switch token {
		case "good":
			return &authcore.Claims{UserID: "u1"}, nil
		case "down":
			return nil, authcore.ErrDependencyUnavailable
		default:
			return nil, authcore.ErrTokenInvalid
		}
	})

	var seen *authcore.Claims
	h := Guard(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		header string
		want   int
	}{
		{header: "Bearer good", want: http.StatusNoContent},
		{header: "Bearer bad", want: http.StatusUnauthorized},
		{header: "Bearer down", want: http.StatusUnauthorized},
		{header: "Basic abc", want: http.StatusUnauthorized},
		{header: "", want: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tc.want {
			t.Fatalf("%q: expected %d, got %d", tc.header, tc.want, rec.Code)
		}
		if tc.want == http.StatusNoContent && (seen == nil || seen.UserID != "u1") {
			t.Fatalf("%q: expected claims in context", tc.header)
		}
	}
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
		msg  string
	}{
		{authcore.ErrDuplicateEmail, http.StatusConflict, msgDuplicate},
		{authcore.ErrInvalidInput, http.StatusBadRequest, msgInvalidInput},
		{authcore.ErrInvalidCredentials, http.StatusUnauthorized, msgCredentials},
		{authcore.ErrChallengeExpired, http.StatusUnauthorized, msgTwoFactor},
		{authcore.ErrChallengeInvalid, http.StatusUnauthorized, msgTwoFactor},
		{authcore.ErrTokenRevoked, http.StatusUnauthorized, msgUnauthorized},
		{fmt.Errorf("%w: store offline", authcore.ErrLocked), http.StatusTooManyRequests, msgLocked},
		{fmt.Errorf("%w: redis: connection refused", authcore.ErrDependencyUnavailable), http.StatusServiceUnavailable, msgUnavailable},
		{errors.New("unexpected"), http.StatusServiceUnavailable, msgUnavailable},
	}

	for _, tc := range tests {
		rec := httptest.NewRecorder()
		WriteError(rec, tc.err)

		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["error"] != tc.msg {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.msg, body["error"])
		}
	}
}

func TestClientIP(t *testing.T) {
	var got string
	h := ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = authcore.ClientIPFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "203.0.113.9" {
		t.Fatalf("expected host without port, got %q", got)
	}
}

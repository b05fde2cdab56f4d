package authcore

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/revocation"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type captureSink struct {
	events chan AuditEvent
}

func newCaptureSink(buffer int) *captureSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &captureSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *captureSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// drain collects events until none arrives for a short while.
func (s *captureSink) drain() []AuditEvent {
	var events []AuditEvent
	for {
		select {
		case ev := <-s.events:
			events = append(events, ev)
		case <-time.After(100 * time.Millisecond):
			return events
		}
	}
}

func auditEngine(t *testing.T, sink AuditSink, enabled bool) *testEngine {
	t.Helper()
	return newTestEngineWith(t, func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = enabled
		cfg.Audit.BufferSize = 64
		cfg.Audit.DropIfFull = false
		b.WithAuditSink(sink)
	})
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	e := auditEngine(t, sink, false)

	_, _ = e.Login(WithClientIP(context.Background(), "203.0.113.1"), "alice@x.com", "wrong-password")
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditLoginFailureEvent(t *testing.T) {
	sink := newCaptureSink(8)
	e := auditEngine(t, sink, true)

	ctx := WithClientIP(context.Background(), "198.51.100.33")
	_, _ = e.Login(ctx, "alice@x.com", "super-secret-password")

	select {
	case ev := <-sink.events:
		if ev.EventType != AuditLoginFailure {
			t.Fatalf("expected %s, got %s", AuditLoginFailure, ev.EventType)
		}
		if ev.IP != "198.51.100.33" {
			t.Fatalf("expected IP 198.51.100.33, got %q", ev.IP)
		}
		if ev.Error != string(auditErrInvalidCredentials) || ev.Success {
			t.Fatalf("unexpected outcome fields %+v", ev)
		}
		if !ev.Timestamp.Equal(e.clock.Now()) {
			t.Fatalf("expected engine clock timestamp, got %v", ev.Timestamp)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected audit event to be received")
	}
}

func TestAuditScenarioEventSequence(t *testing.T) {
	sink := newCaptureSink(32)
	e := auditEngine(t, sink, true)
	ctx := context.Background()

	userID, err := e.Signup(ctx, scenarioEmail, scenarioPassword, true)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	login, err := e.Login(ctx, scenarioEmail, scenarioPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	code := e.sender.lastCode(t, scenarioEmail)
	_, _ = e.VerifyTwoFactor(ctx, scenarioEmail, login.LoginAttemptID, otherCode(code))
	res, err := e.VerifyTwoFactor(ctx, scenarioEmail, login.LoginAttemptID, code)
	if err != nil {
		t.Fatalf("VerifyTwoFactor: %v", err)
	}
	if err := e.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	_, _ = e.Validate(ctx, res.Token)

	events := sink.drain()
	want := []string{
		AuditSignupSuccess,
		AuditTwoFactorIssued,
		AuditTwoFactorFailure,
		AuditTwoFactorVerified,
		AuditLogout,
		AuditTokenRejected,
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i, ev := range events {
		if ev.EventType != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], ev.EventType)
		}
	}

	if events[3].UserID != userID || events[3].TokenID == "" {
		t.Fatalf("expected verified event to carry user and token id, got %+v", events[3])
	}
	if events[4].TokenID != events[3].TokenID {
		t.Fatal("expected logout to reference the issued token id")
	}
	rejected := events[5]
	if rejected.Error != string(auditErrTokenRevoked) {
		t.Fatalf("expected token_revoked reason, got %q", rejected.Error)
	}
	if rejected.Metadata["token_fp"] != revocation.Fingerprint(res.Token) {
		t.Fatal("expected rejected token to be referenced by fingerprint")
	}

	secrets := []string{scenarioPassword, code, res.Token}
	for _, ev := range events {
		for _, needle := range secrets {
			if strings.Contains(ev.Error, needle) {
				t.Fatalf("sensitive value leaked in audit error field: %q", needle)
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("sensitive value leaked in audit metadata: %q", needle)
				}
			}
		}
	}
}

func TestAuditSlogSinkThroughEngine(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	e := auditEngine(t, NewSlogSink(logger), true)

	if _, err := e.Signup(context.Background(), "bob@x.com", scenarioPassword, false); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	e.Close()

	if !buf.Contains(AuditSignupSuccess) {
		t.Fatalf("expected slog record for signup, got %q", buf.String())
	}
	if buf.Contains(scenarioPassword) {
		t.Fatal("password leaked into logs")
	}
}

func TestAuditDroppedCounterExposed(t *testing.T) {
	e := newTestEngine(t)
	if e.AuditDropped() != 0 {
		t.Fatal("expected zero drops without audit")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Contains(v string) bool {
	return strings.Contains(b.String(), v)
}

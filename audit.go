package authcore

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/authcore/internal/audit"
)

// Audit event types emitted by the Engine.
const (
	AuditSignupSuccess     = "signup_success"
	AuditSignupDuplicate   = "signup_duplicate"
	AuditSignupFailure     = "signup_failure"
	AuditLoginSuccess      = "login_success"
	AuditLoginFailure      = "login_failure"
	AuditLoginLocked       = "login_locked"
	AuditTwoFactorIssued   = "twofactor_issued"
	AuditTwoFactorVerified = "twofactor_verified"
	AuditTwoFactorFailure  = "twofactor_failure"
	AuditTwoFactorLocked   = "twofactor_locked"
	AuditTokenRejected     = "token_rejected"
	AuditLogout            = "logout"
)

type (
	// AuditEvent is one security-relevant record.
	AuditEvent = audit.Event
	// AuditSink consumes audit events. Emit runs on the dispatcher goroutine.
	AuditSink      = audit.Sink
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	SlogSink       = audit.SlogSink
)

// NewChannelSink buffers events in a channel read through Events.
func NewChannelSink(buffer int) *ChannelSink { return audit.NewChannelSink(buffer) }

// NewJSONWriterSink writes one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }

// NewSlogSink logs events through logger.
func NewSlogSink(logger *slog.Logger) *SlogSink { return audit.NewSlogSink(logger) }

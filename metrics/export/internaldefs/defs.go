package internaldefs

import (
	"github.com/MrEthical07/authcore"
)

// OutcomeLabel is the label that splits a family into its series.
const OutcomeLabel = "outcome"

// Series is one labelled counter inside a family.
type Series struct {
	ID      authcore.MetricID
	Outcome string
}

// Family groups the engine counters of one operation. A family without an
// outcome label has exactly one series with an empty Outcome.
type Family struct {
	Name   string
	Help   string
	Series []Series
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for events lost to dispatcher backpressure.
const AuditDroppedName = "authcore_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."

// Families lists every exported counter family in a stable order.
var Families = []Family{
	{
		Name: "authcore_signup_total",
		Help: "Signup attempts by outcome.",
		Series: []Series{
			{ID: authcore.MetricSignupSuccess, Outcome: "success"},
			{ID: authcore.MetricSignupDuplicate, Outcome: "duplicate"},
			{ID: authcore.MetricSignupFailure, Outcome: "failure"},
		},
	},
	{
		Name: "authcore_login_total",
		Help: "Password logins by outcome. success means a token was issued.",
		Series: []Series{
			{ID: authcore.MetricLoginSuccess, Outcome: "success"},
			{ID: authcore.MetricLoginFailure, Outcome: "failure"},
			{ID: authcore.MetricLoginLocked, Outcome: "locked"},
		},
	},
	{
		Name: "authcore_twofactor_total",
		Help: "Two-factor challenges issued and redeemed, by outcome.",
		Series: []Series{
			{ID: authcore.MetricTwoFactorIssued, Outcome: "issued"},
			{ID: authcore.MetricTwoFactorSuccess, Outcome: "success"},
			{ID: authcore.MetricTwoFactorInvalid, Outcome: "invalid"},
			{ID: authcore.MetricTwoFactorExpired, Outcome: "expired"},
			{ID: authcore.MetricTwoFactorLocked, Outcome: "locked"},
		},
	},
	{
		Name: "authcore_validate_total",
		Help: "Token validations by outcome.",
		Series: []Series{
			{ID: authcore.MetricValidateSuccess, Outcome: "success"},
			{ID: authcore.MetricValidateInvalid, Outcome: "invalid"},
			{ID: authcore.MetricValidateExpired, Outcome: "expired"},
			{ID: authcore.MetricValidateRevoked, Outcome: "revoked"},
		},
	},
	{
		Name: "authcore_logout_total",
		Help: "Logout requests by outcome.",
		Series: []Series{
			{ID: authcore.MetricLogout, Outcome: "success"},
			{ID: authcore.MetricLogoutFailure, Outcome: "failure"},
		},
	},
	{
		Name: "authcore_dependency_unavailable_total",
		Help: "Operations that failed closed because a store, backend or sender did not answer.",
		Series: []Series{
			{ID: authcore.MetricDependencyUnavailable},
		},
	},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricValidateLatency, Name: "authcore_validate_latency_seconds", Help: "Token validation latency."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's latency
// buckets. The last one is the overflow bucket.
var HistogramBounds = [8]string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}

// CumulativeBuckets turns the per-bucket counts of a snapshot into running
// totals. Missing buckets count as zero; extra ones are ignored.
func CumulativeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}

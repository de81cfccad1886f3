package internaldefs

import (
	"github.com/MrEthical07/persontric"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   persontric.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   persontric.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: persontric.MetricSessionCreated, Name: "persontric_session_created_total", Help: "Created sessions."},
	{ID: persontric.MetricSessionValidated, Name: "persontric_session_validated_total", Help: "Validations that returned a session."},
	{ID: persontric.MetricSessionRotated, Name: "persontric_session_rotated_total", Help: "Validations that extended the session expiry."},
	{ID: persontric.MetricSessionNotFound, Name: "persontric_session_not_found_total", Help: "Validations for unknown session ids."},
	{ID: persontric.MetricSessionExpired, Name: "persontric_session_expired_total", Help: "Expired sessions purged during validation."},
	{ID: persontric.MetricSessionOrphaned, Name: "persontric_session_orphaned_total", Help: "Sessions purged because their person was missing."},
	{ID: persontric.MetricSessionInvalidated, Name: "persontric_session_invalidated_total", Help: "Single-session invalidations."},
	{ID: persontric.MetricPersonSessionsInvalidated, Name: "persontric_person_sessions_invalidated_total", Help: "Invalidate-all-sessions operations."},
	{ID: persontric.MetricExpiredSweep, Name: "persontric_expired_sweep_total", Help: "Expired-session sweeps."},
	{ID: persontric.MetricAdapterFailure, Name: "persontric_adapter_failure_total", Help: "Adapter calls that returned an error."},
}

var HistogramDefs = []HistogramDef{
	{ID: persontric.MetricValidateLatency, Name: "persontric_validate_latency_seconds", Help: "ValidateSession latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "persontric_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth bucket
// is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that publish
// one instrument per bucket.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling or
// truncating as needed.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

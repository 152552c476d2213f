package metrics_test

import (
	"testing"

	"github.com/ocsalud/auth-go/metrics"
)

// A single enabled instance for the whole test binary: promauto
// registers against the default registry, which rejects duplicates.
var enabled = metrics.New(true)

func TestEnabled_RecordsWithoutPanic(t *testing.T) {
	enabled.RecordAuthSuccess()
	enabled.RecordAuthFailure("expired")
	enabled.RecordAuthFailure("invalid_signature")
	enabled.RecordDecision("role", "allowed", 0.001)
	enabled.RecordDecision("tenant", "denied", 0.002)
	enabled.RecordTokenIssued("access")
	enabled.RecordTokenIssued("refresh")
	enabled.RecordLogin("success")
	enabled.RecordLogin("invalid")
}

func TestDisabled_IsNoOp(t *testing.T) {
	m := metrics.New(false)

	// None of these may touch nil collectors.
	m.RecordAuthSuccess()
	m.RecordAuthFailure("expired")
	m.RecordDecision("permission", "denied", 0)
	m.RecordTokenIssued("access")
	m.RecordLogin("disabled")
}

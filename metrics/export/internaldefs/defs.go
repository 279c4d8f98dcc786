package internaldefs

import (
	tmauth "github.com/miniware/tmauth"
)

// CounterDef defines a public type used by tmauth APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   tmauth.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by tmauth APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   tmauth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session client.
var CounterDefs = []CounterDef{
	{ID: tmauth.MetricAutoLoginAuthenticated, Name: "tmauth_auto_login_authenticated_total", Help: "Auto-login calls that returned an authenticated session."},
	{ID: tmauth.MetricAutoLoginAnonymous, Name: "tmauth_auto_login_anonymous_total", Help: "Auto-login calls for unrecognized Telegram accounts."},
	{ID: tmauth.MetricAutoLoginFailure, Name: "tmauth_auto_login_failure_total", Help: "Failed auto-login calls."},
	{ID: tmauth.MetricRegisterSuccess, Name: "tmauth_register_success_total", Help: "Successful registrations."},
	{ID: tmauth.MetricRegisterConflict, Name: "tmauth_register_conflict_total", Help: "Registrations rejected with an existing-identity conflict."},
	{ID: tmauth.MetricRegisterFailure, Name: "tmauth_register_failure_total", Help: "Failed registrations."},
	{ID: tmauth.MetricMergeSuccess, Name: "tmauth_merge_success_total", Help: "Successful update-and-login merges."},
	{ID: tmauth.MetricMergeFailure, Name: "tmauth_merge_failure_total", Help: "Failed update-and-login merges."},
	{ID: tmauth.MetricRefreshSuccess, Name: "tmauth_refresh_success_total", Help: "Successful token renewals."},
	{ID: tmauth.MetricRefreshFailure, Name: "tmauth_refresh_failure_total", Help: "Failed token renewals."},
	{ID: tmauth.MetricRefreshJoined, Name: "tmauth_refresh_joined_total", Help: "Callers that joined an in-flight renewal."},
	{ID: tmauth.MetricRequestRetried, Name: "tmauth_request_retried_total", Help: "Requests replayed after a coordinated refresh."},
	{ID: tmauth.MetricSessionExpired, Name: "tmauth_session_expired_total", Help: "Sessions terminated after an unrecoverable refresh failure."},
	{ID: tmauth.MetricSessionCleared, Name: "tmauth_session_cleared_total", Help: "Credential store clears."},
	{ID: tmauth.MetricLogout, Name: "tmauth_logout_total", Help: "Logout operations."},
	{ID: tmauth.MetricProfileSuccess, Name: "tmauth_profile_success_total", Help: "Successful profile fetches."},
	{ID: tmauth.MetricProfileFailure, Name: "tmauth_profile_failure_total", Help: "Failed profile fetches."},
	{ID: tmauth.MetricGateAllowed, Name: "tmauth_gate_allowed_total", Help: "Gate evaluations that allowed the route."},
	{ID: tmauth.MetricGateRedirected, Name: "tmauth_gate_redirected_total", Help: "Gate evaluations that redirected."},
}

// HistogramDefs is an exported constant or variable used by the session client.
var HistogramDefs = []HistogramDef{
	{ID: tmauth.MetricRequestLatency, Name: "tmauth_request_latency_seconds", Help: "Authenticated request pipeline latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session client.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session client.
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

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

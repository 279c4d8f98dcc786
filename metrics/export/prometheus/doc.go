// Package prometheus provides Prometheus collectors for tmauth metrics.
//
// [NewPrometheusExporter] accepts a [tmauth.Client] and exposes an [http.Handler]
// that renders all tmauth counters and histograms in Prometheus text exposition format.
// Counter names are prefixed tmauth_*_total; the single histogram is
// tmauth_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry: callers mount the Handler.
//   - Mutate client state.
package prometheus

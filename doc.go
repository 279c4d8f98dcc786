// Package tmauth provides the client-side session core for a Telegram-based
// identity platform: credential storage, coordinated token refresh, an
// authenticated request pipeline, the identity-linking flow, and a pure
// navigation gate.
//
// The package is designed for concurrent client workloads: Client methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// tmauth is the public surface. It exposes [Client], [Builder], [Config],
// [LinkFlow], [Gate], and value types (MetricsSnapshot, AuditEvent, etc.).
// Credential persistence lives in the session package, single-flight renewal
// in the refresh package, and endpoint bindings in the identity package;
// audit dispatch is internal.
//
// # What this package must NOT do
//
//   - Store or validate tokens server-side, or sign anything.
//   - Perform navigation: [Gate.Evaluate] returns a decision, the host
//     application acts on it.
//   - Retry beyond the single post-refresh replay of [Client.Do].
//
// # Concurrency contract
//
// Any number of goroutines may issue requests through one Client. When the
// access token lapses, exactly one renewal reaches the identity service and
// every in-flight caller shares its outcome.
package tmauth

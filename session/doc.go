// Package session provides the durable client-side credential record and the
// atomic whole-record store that owns it.
//
// # Record semantics
//
// A [Record] is the full session tuple: token pair, owning identity, computed
// expiry instant, and verification flag. Every mutation replaces the record as
// one unit, so there is no observable state where the access token and its
// owning identity disagree. The invariant "access token present ⇔ expiry
// instant set" is enforced on write and on hydration.
//
// # Architecture boundaries
//
// This package owns the [Store] (in-memory snapshot + persistence) and the
// [Storage] backends (memory, file, Redis). It performs no network calls to
// the identity service, no token interpretation, and no refresh coordination.
// Those responsibilities belong to the root package.
//
// # What this package must NOT do
//
//   - Import tmauth, refresh, or identity (no upward imports).
//   - Decide authentication policy beyond the derived Authenticated check.
//   - Talk to the identity service.
package session

// Package identity binds the Telegram identity service endpoints: auto-login,
// registration, update-and-login, shared-phone lookup, token refresh, profile,
// and logout.
//
// # Error taxonomy
//
// Server rejections decode into [APIError] with the HTTP status and the
// service's detail string. A 409 carrying an existing_user body decodes into
// [ConflictError]: a distinguished protocol outcome, not a generic failure.
// Transport failures surface as wrapped plain errors with no automatic retry.
//
// # Architecture boundaries
//
// The client is stateless. It attaches no Authorization header of its own;
// the injected [Doer] (the root package's request pipeline) owns token attach
// and retry. Calls that must bypass the pipeline (login and refresh must not
// recurse into refresh) are marked with [WithoutSession].
//
// # What this package must NOT do
//
//   - Store or refresh tokens.
//   - Retry requests.
//   - Import session, refresh, or the root package.
package identity

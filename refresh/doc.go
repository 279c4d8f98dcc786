// Package refresh provides the single-flight renewal coordinator.
//
// # Coordination contract
//
// At most one renewal runs at any time. The first caller to find the in-flight
// slot empty claims it under the coordinator mutex (there is no suspension
// point between the check and the claim) and becomes the leader; every caller
// arriving while the slot is occupied joins the leader's outcome. The slot is
// released when the renewal settles, success or failure, so a later caller
// starts a fresh renewal. The coordinator never retries: retry policy belongs
// to the request pipeline.
//
// # Architecture boundaries
//
// The renewal itself is injected as a [RenewFunc]. The coordinator knows
// nothing about tokens, storage, or HTTP.
//
// # What this package must NOT do
//
//   - Perform network calls or touch the credential store.
//   - Retry a failed renewal.
//   - Import any other package in this module.
package refresh

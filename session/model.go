package session

import "time"

// CurrentSchemaVersion is the persisted record schema version written by this
// build. Older persisted versions hydrate normally; unknown future versions
// are treated as corrupt and yield an empty record.
const CurrentSchemaVersion = 1

// Record defines a public type used by tmauth APIs.
//
// Record instances are snapshots: the [Store] hands out copies, and callers
// must treat them as immutable values.
type Record struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`

	UserID   string `json:"user_id,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`

	// ExpiresAt is the access-token expiry as unix seconds. Zero means a
	// token was never issued.
	ExpiresAt int64 `json:"expires_at,omitempty"`

	PhoneVerified bool `json:"phone_verified,omitempty"`

	// InstallID identifies this client installation. It is assigned once on
	// first hydration and survives logout.
	InstallID string `json:"install_id,omitempty"`

	SchemaVersion int `json:"schema_version"`
}

// Authenticated reports whether the record holds a live access token at the
// given instant. It is derived, never stored.
func (r Record) Authenticated(now time.Time) bool {
	return r.AccessToken != "" && now.Unix() < r.ExpiresAt
}

// Expired reports whether the record holds an access token whose expiry
// instant has passed. An empty record is not "expired"; it never held a
// token at all.
func (r Record) Expired(now time.Time) bool {
	return r.AccessToken != "" && now.Unix() >= r.ExpiresAt
}

// HasRefreshToken reports whether a renewal credential is available.
func (r Record) HasRefreshToken() bool {
	return r.RefreshToken != ""
}

// valid checks the record invariant. Hydration drops records that violate it
// rather than surfacing them to callers.
func (r Record) valid() bool {
	if r.AccessToken != "" && r.ExpiresAt <= 0 {
		return false
	}
	if r.AccessToken == "" && r.ExpiresAt != 0 {
		return false
	}
	return true
}

// Tokens is the input for [Store.Save]: the full token/identity tuple as
// returned by a successful login, registration, or refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	TenantID     string

	// ExpiresIn is the access-token lifetime in seconds. Must be positive;
	// fallback resolution for bundles without an explicit lifetime happens
	// before the store is written.
	ExpiresIn int64

	PhoneVerified bool
}

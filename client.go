package tmauth

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/miniware/tmauth/identity"
	"github.com/miniware/tmauth/internal/audit"
	"github.com/miniware/tmauth/refresh"
	"github.com/miniware/tmauth/session"
)

// Client defines a public type used by tmauth APIs.
//
// Client is the authenticated session client. It is safe for concurrent use
// after construction through [Builder.Build].
type Client struct {
	config Config
	store  *session.Store
	httpc  *http.Client

	// api talks to the identity service directly; authedAPI routes through
	// the request pipeline (Bearer attach, 401 retry).
	api       *identity.Client
	authedAPI *identity.Client

	coordinator *refresh.Coordinator
	audit       *audit.Dispatcher
	metrics     *Metrics
	logger      zerolog.Logger

	now func() time.Time
}

// Load hydrates the credential store from the configured backend and ensures
// the durable installation id. Call it once before issuing requests.
func (c *Client) Load(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}
	return c.store.Load(ctx)
}

// Session returns a snapshot of the current credential record.
func (c *Client) Session() Record {
	if c == nil {
		return Record{}
	}
	return c.store.Current()
}

// IsAuthenticated reports whether a live access token is held.
func (c *Client) IsAuthenticated() bool {
	return c != nil && c.store.Authenticated()
}

// Metrics returns the in-process metrics registry.
func (c *Client) Metrics() *Metrics {
	if c == nil {
		return nil
	}
	return c.metrics
}

// MetricsSnapshot returns a point-in-time copy of all counters and
// histograms. Exporters read it on each collection cycle.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}, Histograms: map[MetricID][]uint64{}}
	}
	return c.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

// AutoLogin attempts the idempotent Telegram auto-login. A recognized account
// commits the returned token tuple and reports true; an unknown account
// reports false with the store untouched.
func (c *Client) AutoLogin(ctx context.Context, initData string) (bool, error) {
	if c == nil {
		return false, ErrClientNotReady
	}

	resp, err := c.api.AutoLogin(ctx, initData)
	if err != nil {
		c.metrics.Inc(MetricAutoLoginFailure)
		c.emitAudit(ctx, auditAutoLogin, false, err, nil)
		return false, err
	}
	if !resp.Authenticated {
		c.metrics.Inc(MetricAutoLoginAnonymous)
		c.emitAudit(ctx, auditAutoLogin, true, nil, func() map[string]string {
			return map[string]string{"outcome": "anonymous"}
		})
		return false, nil
	}

	if err := c.commitTokens(ctx, session.Tokens{
		AccessToken:   resp.AccessToken,
		RefreshToken:  resp.RefreshToken,
		UserID:        resp.UserID,
		TenantID:      resp.TenantID,
		ExpiresIn:     resp.ExpiresIn,
		PhoneVerified: resp.PhoneVerified,
	}); err != nil {
		c.metrics.Inc(MetricAutoLoginFailure)
		c.emitAudit(ctx, auditAutoLogin, false, err, nil)
		return false, err
	}

	c.metrics.Inc(MetricAutoLoginAuthenticated)
	c.emitAudit(ctx, auditAutoLogin, true, nil, nil)
	return true, nil
}

// Register submits the full registration payload and commits the resulting
// session. A phone bound to another identity yields a *identity.ConflictError
// and leaves the store untouched.
func (c *Client) Register(ctx context.Context, payload RegistrationPayload) error {
	if c == nil {
		return ErrClientNotReady
	}

	bundle, err := c.api.Register(ctx, payload)
	if err != nil {
		if _, ok := identity.AsConflict(err); ok {
			c.metrics.Inc(MetricRegisterConflict)
			c.emitAudit(ctx, auditConflict, false, err, nil)
		} else {
			c.metrics.Inc(MetricRegisterFailure)
			c.emitAudit(ctx, auditRegister, false, err, nil)
		}
		return err
	}

	if err := c.commitBundle(ctx, bundle); err != nil {
		c.metrics.Inc(MetricRegisterFailure)
		c.emitAudit(ctx, auditRegister, false, err, nil)
		return err
	}

	c.metrics.Inc(MetricRegisterSuccess)
	c.emitAudit(ctx, auditRegister, true, nil, nil)
	return nil
}

// UpdateAndLogin merges the submitted fields into an existing identity, logs
// in as it, and commits the resulting session.
func (c *Client) UpdateAndLogin(ctx context.Context, payload MergePayload) error {
	if c == nil {
		return ErrClientNotReady
	}

	bundle, err := c.api.UpdateAndLogin(ctx, payload)
	if err != nil {
		c.metrics.Inc(MetricMergeFailure)
		c.emitAudit(ctx, auditMerge, false, err, nil)
		return err
	}

	if err := c.commitBundle(ctx, bundle); err != nil {
		c.metrics.Inc(MetricMergeFailure)
		c.emitAudit(ctx, auditMerge, false, err, nil)
		return err
	}

	c.metrics.Inc(MetricMergeSuccess)
	c.emitAudit(ctx, auditMerge, true, nil, nil)
	return nil
}

// Refresh renews the session through the single-flight coordinator.
// Concurrent callers share one renewal and its outcome.
func (c *Client) Refresh(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}
	return c.coordinator.Refresh(ctx)
}

// renewSession is the coordinator's renewal function: one refresh call, one
// atomic commit, no retry.
func (c *Client) renewSession(ctx context.Context) error {
	rec := c.store.Current()
	if !rec.HasRefreshToken() {
		c.metrics.Inc(MetricRefreshFailure)
		return ErrNoRefreshToken
	}

	bundle, err := c.api.Refresh(ctx, rec.RefreshToken)
	if err != nil {
		c.metrics.Inc(MetricRefreshFailure)
		c.emitAudit(ctx, auditRefresh, false, err, nil)
		return err
	}

	// The refresh response keeps the owning identity implicit; carry it over
	// from the record the refresh token belonged to.
	if bundle.UserID == "" {
		bundle.UserID = rec.UserID
	}
	if bundle.TenantID == "" {
		bundle.TenantID = rec.TenantID
	}
	if err := c.commitTokens(ctx, session.Tokens{
		AccessToken:   bundle.AccessToken,
		RefreshToken:  bundle.RefreshToken,
		UserID:        bundle.UserID,
		TenantID:      bundle.TenantID,
		ExpiresIn:     bundle.ExpiresIn,
		PhoneVerified: rec.PhoneVerified,
	}); err != nil {
		c.metrics.Inc(MetricRefreshFailure)
		return err
	}

	c.metrics.Inc(MetricRefreshSuccess)
	c.emitAudit(ctx, auditRefresh, true, nil, nil)
	return nil
}

// Profile fetches the authenticated profile through the request pipeline and
// mirrors the verification flag into the store. This is the only lifecycle
// write outside the login and refresh paths.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	rec := c.store.Current()
	if rec.AccessToken == "" && !rec.HasRefreshToken() {
		return nil, ErrNotAuthenticated
	}

	profile, err := c.authedAPI.Profile(ctx)
	if err != nil {
		c.metrics.Inc(MetricProfileFailure)
		return nil, err
	}

	if err := c.store.SetVerified(ctx, profile.PhoneVerified); err != nil {
		c.logger.Warn().Err(err).Msg("persist verification flag failed")
	}
	c.metrics.Inc(MetricProfileSuccess)
	return profile, nil
}

// SharedPhone looks up the phone number the Telegram account shared with the
// bot, if any.
func (c *Client) SharedPhone(ctx context.Context, initData string) (string, error) {
	if c == nil {
		return "", ErrClientNotReady
	}
	return c.api.SharedPhone(ctx, initData)
}

// Logout revokes the refresh token server-side on a best-effort basis and
// clears the local session regardless of the server outcome.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}

	rec := c.store.Current()
	if rec.HasRefreshToken() {
		if err := c.api.Logout(ctx, rec.RefreshToken); err != nil {
			c.logger.Warn().Err(err).Msg("server-side logout failed")
		}
	}

	c.emitAudit(ctx, auditLogout, true, nil, nil)
	err := c.store.Clear(ctx)
	c.metrics.Inc(MetricLogout)
	c.metrics.Inc(MetricSessionCleared)
	return err
}

// NewLinkFlow starts an identity-linking flow for the given Telegram init
// data. The flow begins in [FlowStart].
func (c *Client) NewLinkFlow(initData string) *LinkFlow {
	return &LinkFlow{client: c, initData: initData, state: FlowStart}
}

// EvaluateRoute runs the session gate against the live credential snapshot.
func (c *Client) EvaluateRoute(route Route) GateDecision {
	if c == nil {
		return GateDecision{Allowed: true}
	}

	rec := c.store.Current()
	decision := NewGate(c.config.Gate).Evaluate(route, rec.Authenticated(c.now()), rec.PhoneVerified)
	if decision.Allowed {
		c.metrics.Inc(MetricGateAllowed)
	} else {
		c.metrics.Inc(MetricGateRedirected)
	}
	return decision
}

// Close flushes the audit dispatcher. The Client must not be used after
// Close.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.audit.Close()
}

// commitBundle commits a register/update token bundle.
func (c *Client) commitBundle(ctx context.Context, bundle *identity.TokenBundle) error {
	return c.commitTokens(ctx, session.Tokens{
		AccessToken:  bundle.AccessToken,
		RefreshToken: bundle.RefreshToken,
		UserID:       bundle.UserID,
		TenantID:     bundle.TenantID,
		ExpiresIn:    bundle.ExpiresIn,
	})
}

// commitTokens resolves the token lifetime and swaps the whole record.
func (c *Client) commitTokens(ctx context.Context, t session.Tokens) error {
	t.ExpiresIn = c.resolveLifetime(t.AccessToken, t.ExpiresIn)
	return c.store.Save(ctx, t)
}

// terminateSession clears local state after an unrecoverable refresh failure.
func (c *Client) terminateSession(ctx context.Context, cause error) {
	c.metrics.Inc(MetricSessionExpired)
	c.metrics.Inc(MetricSessionCleared)
	c.emitAudit(ctx, auditSessionExpired, false, cause, nil)
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("clear session after expiry failed")
	}
}

package tmauth

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/miniware/tmauth/identity"
	"github.com/miniware/tmauth/refresh"
	"github.com/miniware/tmauth/session"
)

// Builder defines a public type used by tmauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config  Config
	storage session.Storage
	httpc   *http.Client

	auditSink AuditSink
	logger    zerolog.Logger
	hasLogger bool

	built bool
}

// New describes the new operation and its observable behavior.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL describes the withbaseurl operation and its observable behavior.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithStorage installs the durable credential backend. Defaults to
// session.MemoryStorage.
func (b *Builder) WithStorage(storage session.Storage) *Builder {
	b.storage = storage
	return b
}

// WithHTTPClient overrides the underlying transport client. The configured
// HTTP timeout is not applied to a caller-supplied client.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpc = client
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.hasLogger = true
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	storage := b.storage
	if storage == nil {
		storage = session.NewMemoryStorage()
	}

	httpc := b.httpc
	if httpc == nil {
		httpc = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	logger := b.logger
	if !b.hasLogger {
		logger = zerolog.Nop()
	}

	c := &Client{
		config:  cfg,
		store:   session.NewStore(storage),
		httpc:   httpc,
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		now:     time.Now,
	}

	c.api = identity.NewClient(cfg.BaseURL, httpc,
		identity.WithEndpoints(cfg.Endpoints),
		identity.WithMaxErrorBodyBytes(cfg.HTTP.MaxErrorBodyBytes),
	)
	// The authed client routes every call through the pipeline so Bearer
	// attach and the 401 retry apply.
	c.authedAPI = identity.NewClient(cfg.BaseURL, c,
		identity.WithEndpoints(cfg.Endpoints),
		identity.WithMaxErrorBodyBytes(cfg.HTTP.MaxErrorBodyBytes),
	)

	c.coordinator = refresh.NewCoordinator(
		c.renewSession,
		refresh.WithJoinHook(func() { c.metrics.Inc(MetricRefreshJoined) }),
	)

	c.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true
	return c, nil
}

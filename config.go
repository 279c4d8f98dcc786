package tmauth

import (
	"errors"
	"strings"
	"time"

	"github.com/miniware/tmauth/identity"
)

// Config defines a public type used by tmauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	BaseURL   string
	Endpoints identity.Endpoints
	HTTP      HTTPConfig
	Tokens    TokenConfig
	Gate      GateConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig defines a public type used by tmauth APIs.
type HTTPConfig struct {
	Timeout time.Duration
	// MaxErrorBodyBytes caps how much of an error response body is read
	// when decoding a server rejection.
	MaxErrorBodyBytes int64
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by tmauth APIs.
type TokenConfig struct {
	// FallbackAccessTTL is used when a token bundle carries no lifetime and
	// none can be derived from the token itself.
	FallbackAccessTTL time.Duration
	// DeriveExpiryFromJWT enables deriving the lifetime from the access
	// token's exp claim (unverified parse) before falling back.
	DeriveExpiryFromJWT bool
}

/*
====================================
GATE CONFIG
====================================
*/

// GateConfig defines a public type used by tmauth APIs.
type GateConfig struct {
	LandingRoute string
	EntryRoute   string
	VerifyRoute  string
	// RequireVerified adds the verification redirect rule. Deployments whose
	// users have no phone-verification step leave it off.
	RequireVerified bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by tmauth APIs.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by tmauth APIs.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Endpoints: identity.DefaultEndpoints(),
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			MaxErrorBodyBytes: identity.DefaultMaxErrorBodyBytes,
		},
		Tokens: TokenConfig{
			FallbackAccessTTL:   15 * time.Minute,
			DeriveExpiryFromJWT: true,
		},
		Gate: GateConfig{
			LandingRoute:    "/",
			EntryRoute:      "/login",
			VerifyRoute:     "/verify",
			RequireVerified: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// Value copy is a deep copy: no reference fields beyond strings.
	return cfg
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return errors.New("base URL must be http or https")
	}
	if strings.HasSuffix(c.BaseURL, "/") {
		return errors.New("base URL must not end with a slash")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("HTTP timeout must be positive")
	}
	if c.Tokens.FallbackAccessTTL <= 0 {
		return errors.New("fallback access TTL must be positive")
	}
	if c.Gate.EntryRoute == "" || c.Gate.LandingRoute == "" {
		return errors.New("gate entry and landing routes required")
	}
	if c.Gate.RequireVerified && c.Gate.VerifyRoute == "" {
		return errors.New("gate verify route required when verification is enforced")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}
	for _, ep := range []string{
		c.Endpoints.AutoLogin, c.Endpoints.Register, c.Endpoints.UpdateAndLogin,
		c.Endpoints.SharedPhone, c.Endpoints.Refresh, c.Endpoints.Profile,
		c.Endpoints.Logout,
	} {
		if ep == "" || !strings.HasPrefix(ep, "/") {
			return errors.New("endpoint paths must be non-empty and start with /")
		}
	}
	return nil
}

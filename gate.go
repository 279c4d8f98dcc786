package tmauth

// Route defines a public type used by tmauth APIs.
//
// Route describes the navigation target being evaluated. Verification marks
// the route that completes phone verification; it is always reachable by an
// authenticated user.
type Route struct {
	Name         string
	RequiresAuth bool
	GuestOnly    bool
	Verification bool
}

// GateDecision defines a public type used by tmauth APIs.
//
// Allowed true means proceed to the requested route. Allowed false carries
// the redirect target.
type GateDecision struct {
	Allowed bool
	Target  string
}

// Gate defines a public type used by tmauth APIs.
//
// Gate is a pure route guard: same inputs, same decision, no I/O. The host
// application performs the actual navigation.
type Gate struct {
	landing         string
	entry           string
	verify          string
	requireVerified bool
}

// NewGate describes the new gate operation and its observable behavior.
func NewGate(cfg GateConfig) Gate {
	return Gate{
		landing:         cfg.LandingRoute,
		entry:           cfg.EntryRoute,
		verify:          cfg.VerifyRoute,
		requireVerified: cfg.RequireVerified,
	}
}

// Evaluate applies the guard rules in priority order:
//
//  1. Guest-only route with an authenticated session redirects to landing.
//  2. Protected route without an authenticated session redirects to entry.
//  3. With verification enforced, a protected route with an authenticated
//     but unverified session redirects to the verify route unless it is
//     already the target. Public routes stay reachable unverified.
//  4. Everything else is allowed.
func (g Gate) Evaluate(route Route, authenticated, phoneVerified bool) GateDecision {
	if route.GuestOnly && authenticated {
		return GateDecision{Allowed: false, Target: g.landing}
	}
	if route.RequiresAuth && !authenticated {
		return GateDecision{Allowed: false, Target: g.entry}
	}
	if g.requireVerified && route.RequiresAuth && authenticated && !phoneVerified && !route.Verification {
		return GateDecision{Allowed: false, Target: g.verify}
	}
	return GateDecision{Allowed: true}
}

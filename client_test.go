package tmauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/miniware/tmauth/session"
)

// testClock is a movable clock shared by the client and its store.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *testClock) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New().
		WithBaseURL(srv.URL).
		Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}

	clock := newTestClock()
	c.now = clock.Now
	c.store = session.NewStore(session.NewMemoryStorage(), session.WithNow(clock.Now))
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(c.Close)
	return c, clock
}

func seedSession(t *testing.T, c *Client, tokens session.Tokens) {
	t.Helper()
	if err := c.store.Save(context.Background(), tokens); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestAutoLoginCommitsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/telegram/auto-login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated":  true,
			"access_token":   "at-1",
			"refresh_token":  "rt-1",
			"expires_in":     900,
			"user_id":        "u-1",
			"tenant_id":      "t-1",
			"phone_verified": true,
		})
	})

	c, _ := newTestClient(t, mux)

	ok, err := c.AutoLogin(context.Background(), "init-data")
	if err != nil {
		t.Fatalf("auto login: %v", err)
	}
	if !ok {
		t.Fatal("expected authenticated outcome")
	}

	rec := c.Session()
	if rec.AccessToken != "at-1" || rec.UserID != "u-1" || rec.TenantID != "t-1" {
		t.Fatalf("committed tuple mismatch: %+v", rec)
	}
	if !rec.PhoneVerified {
		t.Fatal("expected verified flag committed")
	}
	if !c.IsAuthenticated() {
		t.Fatal("expected authenticated client")
	}
	if got := c.metrics.Value(MetricAutoLoginAuthenticated); got != 1 {
		t.Fatalf("auto login metric: got %d want 1", got)
	}
}

func TestAutoLoginAnonymousLeavesStoreEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/telegram/auto-login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
	})

	c, _ := newTestClient(t, mux)

	ok, err := c.AutoLogin(context.Background(), "init-data")
	if err != nil {
		t.Fatalf("auto login: %v", err)
	}
	if ok {
		t.Fatal("expected anonymous outcome")
	}
	if c.IsAuthenticated() {
		t.Fatal("anonymous auto-login must not authenticate")
	}
	if got := c.Session().AccessToken; got != "" {
		t.Fatalf("store must stay empty, got token %q", got)
	}
}

func TestLogoutClearsLocallyEvenWhenServerFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"detail": "upstream down"})
	})

	c, _ := newTestClient(t, mux)
	seedSession(t, c, session.Tokens{
		AccessToken: "at", RefreshToken: "rt", UserID: "u-1", ExpiresIn: 900,
	})

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if c.IsAuthenticated() {
		t.Fatal("logout must clear the local session")
	}
	if got := c.metrics.Value(MetricLogout); got != 1 {
		t.Fatalf("logout metric: got %d want 1", got)
	}
}

func TestProfileMirrorsVerificationFlag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "missing token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":             "u-1",
			"tenant_id":      "t-1",
			"phone":          "+1002003004",
			"phone_verified": true,
			"role":           "owner",
		})
	})

	c, _ := newTestClient(t, mux)
	seedSession(t, c, session.Tokens{
		AccessToken: "at", RefreshToken: "rt", UserID: "u-1", ExpiresIn: 900,
	})

	profile, err := c.Profile(context.Background())
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.ID != "u-1" || !profile.PhoneVerified {
		t.Fatalf("profile mismatch: %+v", profile)
	}
	if !c.Session().PhoneVerified {
		t.Fatal("verification flag must be mirrored into the store")
	}
}

func TestProfileWithoutSession(t *testing.T) {
	c, _ := newTestClient(t, http.NewServeMux())

	if _, err := c.Profile(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSharedPhone(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/telegram/get-shared-phone", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"phone": "+1002003004"})
	})

	c, _ := newTestClient(t, mux)
	phone, err := c.SharedPhone(context.Background(), "init-data")
	if err != nil {
		t.Fatalf("shared phone: %v", err)
	}
	if phone != "+1002003004" {
		t.Fatalf("phone: got %q", phone)
	}
}

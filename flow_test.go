package tmauth

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
)

func flowServer(t *testing.T, autoLoginKnown bool, registerStatus int) (*Client, *int64) {
	t.Helper()
	var mergeCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/telegram/auto-login", func(w http.ResponseWriter, r *http.Request) {
		if autoLoginKnown {
			writeJSON(w, http.StatusOK, map[string]any{
				"authenticated": true,
				"access_token":  "at", "refresh_token": "rt",
				"expires_in": 900, "user_id": "u-1", "tenant_id": "t-1",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
	})
	mux.HandleFunc("/auth/v1/telegram/register", func(w http.ResponseWriter, r *http.Request) {
		switch registerStatus {
		case http.StatusOK:
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "at-reg", "refresh_token": "rt-reg",
				"expires_in": 900, "user_id": "u-new", "tenant_id": "t-new", "is_new": true,
			})
		case http.StatusConflict:
			writeJSON(w, http.StatusConflict, map[string]any{
				"detail": "phone already registered",
				"existing_user": map[string]any{
					"user_id": "u-existing", "tenant_id": "t-existing",
					"phone": "+100", "preferred_channel": "telegram",
				},
			})
		default:
			writeJSON(w, registerStatus, map[string]string{"detail": "rejected"})
		}
	})
	mux.HandleFunc("/auth/v1/telegram/update-and-login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&mergeCalls, 1)
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "at-merged", "refresh_token": "rt-merged",
			"expires_in": 900, "user_id": "u-existing", "tenant_id": "t-existing",
		})
	})

	c, _ := newTestClient(t, mux)
	return c, &mergeCalls
}

func TestFlowStartAuthenticates(t *testing.T) {
	c, _ := flowServer(t, true, http.StatusOK)
	flow := c.NewLinkFlow("init-data")

	state, err := flow.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state != FlowAuthenticated {
		t.Fatalf("state: got %s", state)
	}
	if !c.IsAuthenticated() {
		t.Fatal("expected committed session")
	}
}

func TestFlowRegisterAfterAnonymousStart(t *testing.T) {
	c, _ := flowServer(t, false, http.StatusOK)
	flow := c.NewLinkFlow("init-data")

	state, err := flow.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state != FlowNeedsRegistration {
		t.Fatalf("state after anonymous start: got %s", state)
	}

	state, err = flow.Register(context.Background(), RegistrationPayload{
		Phone: "+100", Name: "Acme", CompanyName: "Acme LLC", City: "Riga",
		AvailableChannels: []string{"telegram"}, PreferredChannel: "telegram",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if state != FlowAuthenticated {
		t.Fatalf("state after register: got %s", state)
	}
	if rec := c.Session(); rec.UserID != "u-new" {
		t.Fatalf("committed identity mismatch: %+v", rec)
	}
}

func TestFlowConflictCapturesCandidateWithoutStoreMutation(t *testing.T) {
	c, _ := flowServer(t, false, http.StatusConflict)
	flow := c.NewLinkFlow("init-data")

	if _, err := flow.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	state, err := flow.Register(context.Background(), RegistrationPayload{Phone: "+100"})
	if err != nil {
		t.Fatalf("conflict is a state, not a register error: %v", err)
	}
	if state != FlowConflict {
		t.Fatalf("state: got %s", state)
	}

	candidate := flow.Conflict()
	if candidate == nil || candidate.UserID != "u-existing" {
		t.Fatalf("candidate: got %+v", candidate)
	}
	if c.IsAuthenticated() || c.Session().AccessToken != "" {
		t.Fatal("conflict must not mutate the credential store")
	}
}

func TestFlowMergeResolvesConflict(t *testing.T) {
	c, mergeCalls := flowServer(t, false, http.StatusConflict)
	flow := c.NewLinkFlow("init-data")

	flow.Start(context.Background())
	flow.Register(context.Background(), RegistrationPayload{Phone: "+100"})

	state, err := flow.Merge(context.Background(), MergePayload{Name: "Updated"})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if state != FlowAuthenticated {
		t.Fatalf("state after merge: got %s", state)
	}
	if *mergeCalls != 1 {
		t.Fatalf("merge calls: got %d", *mergeCalls)
	}
	if rec := c.Session(); rec.UserID != "u-existing" || rec.AccessToken != "at-merged" {
		t.Fatalf("merged tuple mismatch: %+v", rec)
	}
	if flow.Conflict() != nil {
		t.Fatal("conflict candidate must be cleared after merge")
	}
}

func TestFlowIllegalTransitions(t *testing.T) {
	c, _ := flowServer(t, true, http.StatusOK)
	flow := c.NewLinkFlow("init-data")

	if _, err := flow.Register(context.Background(), RegistrationPayload{}); !errors.Is(err, ErrFlowState) {
		t.Fatalf("register before start: got %v", err)
	}
	if _, err := flow.Merge(context.Background(), MergePayload{}); !errors.Is(err, ErrFlowState) {
		t.Fatalf("merge before conflict: got %v", err)
	}

	flow.Start(context.Background())
	if _, err := flow.Start(context.Background()); !errors.Is(err, ErrFlowState) {
		t.Fatalf("second start: got %v", err)
	}
}

func TestFlowTransportFailureIsTerminal(t *testing.T) {
	mux := http.NewServeMux() // no handlers: auto-login 404s
	mux.HandleFunc("/auth/v1/telegram/auto-login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
	})
	c, _ := newTestClient(t, mux)
	flow := c.NewLinkFlow("init-data")

	state, err := flow.Start(context.Background())
	if err != nil {
		t.Fatalf("terminal failure is a state, not a start error: %v", err)
	}
	if state != FlowFailed {
		t.Fatalf("state: got %s", state)
	}
	if flow.Err() == nil {
		t.Fatal("expected captured failure")
	}
	if !state.Terminal() {
		t.Fatal("failed state must be terminal")
	}
}

func TestFlowCorrectableRejectionKeepsState(t *testing.T) {
	c, _ := flowServer(t, false, http.StatusUnprocessableEntity)
	flow := c.NewLinkFlow("init-data")
	flow.Start(context.Background())

	state, err := flow.Register(context.Background(), RegistrationPayload{})
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if state != FlowNeedsRegistration {
		t.Fatalf("correctable rejection must keep the state, got %s", state)
	}
}

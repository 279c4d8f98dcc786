package tmauth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/miniware/tmauth/identity"
)

// LinkFlow defines a public type used by tmauth APIs.
//
// LinkFlow drives the identity-linking state machine:
//
//	Start            -> Authenticated | NeedsRegistration | Failed
//	NeedsRegistration -> Authenticated | ConflictDetected | Failed
//	ConflictDetected  -> Authenticated | ConflictDetected | Failed
//
// FlowAuthenticated and FlowFailed are terminal. A successful transition to
// FlowAuthenticated commits the token tuple to the credential store in one
// atomic write; a conflict leaves the store untouched.
type LinkFlow struct {
	client   *Client
	initData string

	mu       sync.Mutex
	state    FlowState
	conflict *ExistingUser
	err      error
}

// State returns the current flow state.
func (f *LinkFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Conflict returns the candidate identity captured on the last conflict, or
// nil when the flow is not in [FlowConflict].
func (f *LinkFlow) Conflict() *ExistingUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FlowConflict || f.conflict == nil {
		return nil
	}
	candidate := *f.conflict
	return &candidate
}

// Err returns the failure that moved the flow to [FlowFailed], if any.
func (f *LinkFlow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Start runs the idempotent auto-login. A recognized account authenticates
// the flow; an unknown one moves it to [FlowNeedsRegistration]. Transport
// failure is terminal.
func (f *LinkFlow) Start(ctx context.Context) (FlowState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowStart {
		return f.state, fmt.Errorf("%w: start from %s", ErrFlowState, f.state)
	}

	authenticated, err := f.client.AutoLogin(ctx, f.initData)
	if err != nil {
		return f.fail(err), nil
	}
	if authenticated {
		f.state = FlowAuthenticated
	} else {
		f.state = FlowNeedsRegistration
	}
	return f.state, nil
}

// Register submits the registration payload. A 409 carrying the existing
// identity moves the flow to [FlowConflict] with the candidate captured; the
// credential store is not touched. Other server rejections keep the flow in
// [FlowNeedsRegistration] so the payload can be corrected and resubmitted.
func (f *LinkFlow) Register(ctx context.Context, payload RegistrationPayload) (FlowState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowNeedsRegistration {
		return f.state, fmt.Errorf("%w: register from %s", ErrFlowState, f.state)
	}
	payload.InitData = f.initData

	err := f.client.Register(ctx, payload)
	if err == nil {
		f.state = FlowAuthenticated
		f.conflict = nil
		return f.state, nil
	}

	if conflict, ok := identity.AsConflict(err); ok {
		f.state = FlowConflict
		f.conflict = &conflict.ExistingUser
		return f.state, nil
	}
	if isCorrectableRejection(err) {
		// Payload rejected: correctable, not terminal.
		return f.state, err
	}
	return f.fail(err), nil
}

// Merge resolves a conflict by updating the existing identity and logging in
// as it. Another server rejection keeps the flow in [FlowConflict]; transport
// failure is terminal.
func (f *LinkFlow) Merge(ctx context.Context, payload MergePayload) (FlowState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowConflict {
		return f.state, fmt.Errorf("%w: merge from %s", ErrFlowState, f.state)
	}
	payload.InitData = f.initData

	err := f.client.UpdateAndLogin(ctx, payload)
	if err == nil {
		f.state = FlowAuthenticated
		f.conflict = nil
		return f.state, nil
	}

	if isCorrectableRejection(err) {
		// Rejected merge keeps the conflict open for another attempt.
		return f.state, err
	}
	if _, ok := identity.AsConflict(err); ok {
		return f.state, err
	}
	return f.fail(err), nil
}

// fail records the terminal failure. Caller holds f.mu.
func (f *LinkFlow) fail(err error) FlowState {
	f.state = FlowFailed
	f.err = err
	return f.state
}

// isCorrectableRejection distinguishes a server-side 4xx (fixable input) from
// a transport failure or 5xx (terminal for the flow).
func isCorrectableRejection(err error) bool {
	var apiErr *identity.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
	}
	return false
}

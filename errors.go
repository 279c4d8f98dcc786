package tmauth

import "errors"

var (
	// ErrClientNotReady is an exported constant or variable used by the session client.
	ErrClientNotReady = errors.New("client not built")
	// ErrSessionExpired is an exported constant or variable used by the session client.
	ErrSessionExpired = errors.New("session expired")
	// ErrNoRefreshToken is an exported constant or variable used by the session client.
	ErrNoRefreshToken = errors.New("no refresh token held")
	// ErrNotAuthenticated is an exported constant or variable used by the session client.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrFlowState is an exported constant or variable used by the session client.
	ErrFlowState = errors.New("operation not valid in current flow state")
	// ErrRequestNotReplayable is an exported constant or variable used by the session client.
	ErrRequestNotReplayable = errors.New("request body cannot be replayed")
)

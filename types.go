package tmauth

import (
	"io"

	"github.com/miniware/tmauth/identity"
	"github.com/miniware/tmauth/internal/audit"
	"github.com/miniware/tmauth/session"
)

// FlowState defines a public type used by tmauth APIs.
//
// FlowState instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FlowState int

const (
	// FlowStart is an exported constant or variable used by the session client.
	FlowStart FlowState = iota
	// FlowNeedsRegistration is an exported constant or variable used by the session client.
	FlowNeedsRegistration
	// FlowConflict is an exported constant or variable used by the session client.
	FlowConflict
	// FlowAuthenticated is an exported constant or variable used by the session client.
	FlowAuthenticated
	// FlowFailed is an exported constant or variable used by the session client.
	FlowFailed
)

// String describes the string operation and its observable behavior.
func (s FlowState) String() string {
	switch s {
	case FlowStart:
		return "start"
	case FlowNeedsRegistration:
		return "needs_registration"
	case FlowConflict:
		return "conflict_detected"
	case FlowAuthenticated:
		return "authenticated"
	case FlowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the flow can make no further transitions.
func (s FlowState) Terminal() bool {
	return s == FlowAuthenticated || s == FlowFailed
}

// Record defines a public type used by tmauth APIs.
type Record = session.Record

// RegistrationPayload defines a public type used by tmauth APIs.
type RegistrationPayload = identity.RegisterRequest

// MergePayload defines a public type used by tmauth APIs.
type MergePayload = identity.UpdateRequest

// ExistingUser defines a public type used by tmauth APIs.
type ExistingUser = identity.ExistingUser

// Profile defines a public type used by tmauth APIs.
type Profile = identity.Profile

// AuditEvent defines a public type used by tmauth APIs.
type AuditEvent = audit.Event

// AuditSink defines a public type used by tmauth APIs.
type AuditSink = audit.Sink

// NoOpSink defines a public type used by tmauth APIs.
type NoOpSink = audit.NoOpSink

// ChannelSink defines a public type used by tmauth APIs.
type ChannelSink = audit.ChannelSink

// JSONWriterSink defines a public type used by tmauth APIs.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink describes the new channel sink operation and its observable behavior.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink describes the new JSON writer sink operation and its observable behavior.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

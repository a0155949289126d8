package session

import "fmt"

// DeploymentError means the server binary could not be fetched or pushed.
type DeploymentError struct {
	Stage string // "fetch" or "push"
	Err   error
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("deployment failed (%s): %v", e.Stage, e.Err)
}

func (e *DeploymentError) Unwrap() error { return e.Err }

// NegotiationError means the encoder probe failed or returned nothing.
type NegotiationError struct {
	Err error // nil when the probe simply returned an empty list
}

func (e *NegotiationError) Error() string {
	if e.Err == nil {
		return "encoder negotiation failed: device reported no encoders"
	}
	return fmt.Sprintf("encoder negotiation failed: %v", e.Err)
}

func (e *NegotiationError) Unwrap() error { return e.Err }

// DecoderUnavailableError means no decoder was selected or it could not be
// bound to its surface.
type DecoderUnavailableError struct {
	Err error
}

func (e *DecoderUnavailableError) Error() string {
	if e.Err == nil {
		return "no decoder selected"
	}
	return fmt.Sprintf("decoder unavailable: %v", e.Err)
}

func (e *DecoderUnavailableError) Unwrap() error { return e.Err }

// ProtocolError carries a failure surfaced by the transport client,
// forwarded verbatim.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Message }

// InvalidStateError means an operation was requested in a state that
// forbids it.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not valid in state %s", e.Op, e.State)
}

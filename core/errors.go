package core

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a required parameter is missing or
// malformed. It is always raised before any side effect takes place.
var ErrInvalidArgument = errors.New("invalid argument")

// AgentError attributes a failure to the named pipeline step. Err is the
// unmodified failure returned by the agent function, so errors.Is and
// errors.As keep working through the wrapper.
type AgentError struct {
	Agent string
	Err   error
}

// Error implements the error interface.
func (e *AgentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("agent %s failed", e.Agent)
	}
	return fmt.Sprintf("agent %s failed: %v", e.Agent, e.Err)
}

// Unwrap returns the original failure.
func (e *AgentError) Unwrap() error { return e.Err }

// NewAgentError wraps err with the name of the failing agent.
func NewAgentError(agent string, err error) *AgentError {
	return &AgentError{Agent: agent, Err: err}
}

// ErrorMessage extracts a human readable message from err. It is total: a nil
// error yields the empty string and an error with an empty message yields its
// dynamic type name.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fmt.Sprintf("%T", err)
}

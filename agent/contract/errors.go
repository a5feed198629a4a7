package contract

import (
	"errors"
	"fmt"
)

var (
	ErrAgentNotFound  = errors.New("agent not found")
	ErrDuplicateAgent = errors.New("agent already registered")
	ErrValidation     = errors.New("validation failed")

	ErrRecorderUnavailable = errors.New("dispatch recorder unavailable")
)

type AgentNotFoundError struct {
	Name string
}

func (e *AgentNotFoundError) Error() string {
	return fmt.Sprintf("Agent %s not found", e.Name)
}

func (e *AgentNotFoundError) Is(target error) bool {
	return target == ErrAgentNotFound
}

// AgentProcessingError carries a failure raised inside an agent. The message is the agent's own.
type AgentProcessingError struct {
	Name string
	Err  error
}

func (e *AgentProcessingError) Error() string {
	return e.Err.Error()
}

func (e *AgentProcessingError) Unwrap() error {
	return e.Err
}

func AgentNameFromError(err error) (string, bool) {
	var nf *AgentNotFoundError
	if errors.As(err, &nf) {
		return nf.Name, true
	}
	var pe *AgentProcessingError
	if errors.As(err, &pe) {
		return pe.Name, true
	}
	return "", false
}

package contract

import (
	"context"
	"encoding/json"
)

type Agent interface {
	Name() string
	ProcessTask(ctx context.Context, data json.RawMessage) (Result, error)
}

type Registry interface {
	Register(agent Agent) error
	Lookup(name string) (Agent, error)
	Names() []string
}

type Dispatcher interface {
	Dispatch(ctx context.Context, task Task) (Result, error)
}

// DispatchRecorder observes dispatch outcomes. Errors are reported, never propagated to the caller.
type DispatchRecorder interface {
	Record(ctx context.Context, rec DispatchRecord) error
}

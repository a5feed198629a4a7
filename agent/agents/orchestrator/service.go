package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/salon-agent-gateway/agent/contract"
)

var (
	ErrAgentNotFound = contractx.ErrAgentNotFound
)

// Orchestrator routes each task to the agent registered under its name.
type Orchestrator struct {
	registry  contractx.Registry
	recorders []contractx.DispatchRecorder

	now func() time.Time
}

var _ contractx.Dispatcher = (*Orchestrator)(nil)

func New(registry contractx.Registry, recorders ...contractx.DispatchRecorder) (*Orchestrator, error) {
	if registry == nil {
		return nil, errors.New("agent registry is required")
	}

	kept := make([]contractx.DispatchRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			kept = append(kept, r)
		}
	}

	return &Orchestrator{
		registry:  registry,
		recorders: kept,
		now:       time.Now,
	}, nil
}

func (o *Orchestrator) Dispatch(ctx context.Context, task contractx.Task) (contractx.Result, error) {
	startedAt := o.now()

	res, err := o.dispatch(ctx, task)

	o.record(ctx, contractx.DispatchRecord{
		RequestID:  contractx.RequestIDFromContext(ctx),
		AgentName:  task.AgentName,
		Result:     res,
		Err:        err,
		StartedAt:  startedAt,
		FinishedAt: o.now(),
	})

	return res, err
}

func (o *Orchestrator) dispatch(ctx context.Context, task contractx.Task) (contractx.Result, error) {
	agent, err := o.registry.Lookup(task.AgentName)
	if err != nil {
		return contractx.Result{}, err
	}

	log.Ctx(ctx).Info().Str("agent", agent.Name()).Msgf("Executing task with %s", agent.Name())

	res, err := agent.ProcessTask(ctx, task.Data)
	if err != nil {
		return contractx.Result{}, &contractx.AgentProcessingError{Name: agent.Name(), Err: err}
	}
	return res, nil
}

// record runs every recorder concurrently and returns once all have finished.
func (o *Orchestrator) record(ctx context.Context, rec contractx.DispatchRecord) {
	var wg sync.WaitGroup
	for _, r := range o.recorders {
		wg.Add(1)
		go func(r contractx.DispatchRecorder) {
			defer wg.Done()
			err := r.Record(ctx, rec)
			switch {
			case err == nil:
			case errors.Is(err, contractx.ErrRecorderUnavailable):
				log.Ctx(ctx).Debug().Err(err).Str("agent", rec.AgentName).Msg("dispatch recorder skipped")
			default:
				log.Ctx(ctx).Warn().
					Err(err).
					Str("agent", rec.AgentName).
					Msg("dispatch recorder failed")
			}
		}(r)
	}
	wg.Wait()
}

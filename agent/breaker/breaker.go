package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	contractx "github.com/tanpawarit/salon-agent-gateway/agent/contract"
)

type Config struct {
	FailureThreshold uint32        `split_words:"true" default:"5"`
	OpenTimeout      time.Duration `split_words:"true" default:"60s"`
	HalfOpenRequests uint32        `split_words:"true" default:"1"`
}

// Recorder guards a DispatchRecorder with a circuit breaker. While the
// breaker is open the wrapped recorder is not called.
type Recorder struct {
	name string
	next contractx.DispatchRecorder
	cb   *gobreaker.CircuitBreaker
}

var _ contractx.DispatchRecorder = (*Recorder)(nil)

func Wrap(name string, next contractx.DispatchRecorder, cfg Config) (*Recorder, error) {
	if next == nil {
		return nil, errors.New("recorder is required")
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	halfOpen := cfg.HalfOpenRequests
	if halfOpen == 0 {
		halfOpen = 1
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpen,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			evt := log.Info()
			if to == gobreaker.StateOpen {
				evt = log.Warn()
			}
			evt.Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("recorder circuit breaker changed state")
		},
	})

	return &Recorder{name: name, next: next, cb: cb}, nil
}

func (r *Recorder) Record(ctx context.Context, rec contractx.DispatchRecord) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.next.Record(ctx, rec)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: breaker=%s state=%s", contractx.ErrRecorderUnavailable, r.name, r.cb.State())
	}
	return err
}

func (r *Recorder) State() gobreaker.State {
	return r.cb.State()
}

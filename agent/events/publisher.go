package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	contractx "github.com/tanpawarit/salon-agent-gateway/agent/contract"
)

const (
	TypeAgentTaskDispatched = "agent.task.dispatched"
	Version                 = "1"
)

type Event struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Version       string  `json:"version"`
	OccurredAt    string  `json:"occurred_at"`
	TenantID      string  `json:"tenant_id"`
	CorrelationID string  `json:"correlation_id"`
	Payload       Payload `json:"payload"`
}

type Payload struct {
	AgentName  string `json:"agentName"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

type Sender interface {
	Publish(ctx context.Context, body any, headers map[string]string) (string, error)
}

// Publisher emits one event per dispatch outcome.
type Publisher struct {
	sender   Sender
	tenantID string
	newID    func() string
}

var _ contractx.DispatchRecorder = (*Publisher)(nil)

func NewPublisher(sender Sender, tenantID string) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("event sender is required")
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, errors.New("tenant id is required")
	}
	return &Publisher{
		sender:   sender,
		tenantID: tenantID,
		newID:    uuid.NewString,
	}, nil
}

func (p *Publisher) Record(ctx context.Context, rec contractx.DispatchRecord) error {
	evt := p.build(rec)
	_, err := p.sender.Publish(context.WithoutCancel(ctx), evt, map[string]string{
		"Upstash-Deduplication-Id": evt.ID,
	})
	return err
}

func (p *Publisher) build(rec contractx.DispatchRecord) Event {
	status := rec.Result.Status
	if rec.Failed() {
		status = contractx.StatusError
	}

	id := p.newID()
	correlationID := rec.RequestID
	if correlationID == "" {
		correlationID = id
	}

	return Event{
		ID:            id,
		Type:          TypeAgentTaskDispatched,
		Version:       Version,
		OccurredAt:    rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		TenantID:      p.tenantID,
		CorrelationID: correlationID,
		Payload: Payload{
			AgentName:  rec.AgentName,
			Status:     string(status),
			Message:    rec.Result.Message,
			Error:      rec.ErrorText(),
			DurationMS: rec.FinishedAt.Sub(rec.StartedAt).Milliseconds(),
		},
	}
}

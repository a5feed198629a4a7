package contract

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Task is the envelope routed to a single agent.
type Task struct {
	AgentName string          `json:"agentName"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// UnmarshalJSON accepts the legacy "agent" key as an alias of "agentName".
func (t *Task) UnmarshalJSON(b []byte) error {
	var raw struct {
		AgentName string          `json:"agentName"`
		Agent     string          `json:"agent"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t.AgentName = raw.AgentName
	if t.AgentName == "" {
		t.AgentName = raw.Agent
	}
	t.Data = raw.Data
	return nil
}

type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

func Success(message string) Result {
	return Result{Status: StatusSuccess, Message: message}
}

// DispatchRecord describes one finished dispatch for recorders.
type DispatchRecord struct {
	RequestID  string
	AgentName  string
	Result     Result
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r DispatchRecord) Failed() bool {
	return r.Err != nil
}

func (r DispatchRecord) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

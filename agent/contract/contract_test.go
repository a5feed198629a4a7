package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestTaskUnmarshalAgentNameAlias(t *testing.T) {
	t.Parallel()

	var task Task
	if err := json.Unmarshal([]byte(`{"agent":"DynamicPricingAgent","data":{"sku":"cut"}}`), &task); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if task.AgentName != "DynamicPricingAgent" {
		t.Fatalf("AgentName = %q, want DynamicPricingAgent", task.AgentName)
	}
	if string(task.Data) != `{"sku":"cut"}` {
		t.Fatalf("Data = %s", task.Data)
	}
}

func TestTaskUnmarshalPrefersAgentName(t *testing.T) {
	t.Parallel()

	var task Task
	if err := json.Unmarshal([]byte(`{"agentName":"A","agent":"B"}`), &task); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if task.AgentName != "A" {
		t.Fatalf("AgentName = %q, want A", task.AgentName)
	}
}

func TestAgentNotFoundError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("dispatch: %w", &AgentNotFoundError{Name: "Y"})
	if !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
	name, ok := AgentNameFromError(err)
	if !ok || name != "Y" {
		t.Fatalf("AgentNameFromError() = %q, %v", name, ok)
	}
	if got := (&AgentNotFoundError{Name: "Y"}).Error(); got != "Agent Y not found" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestAgentProcessingErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &AgentProcessingError{Name: "X", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected processing error to unwrap to cause")
	}
	if err.Error() != "boom" {
		t.Fatalf("Error() = %q, want boom", err.Error())
	}
	if errors.Is(err, ErrAgentNotFound) {
		t.Fatal("processing error must not match ErrAgentNotFound")
	}
}

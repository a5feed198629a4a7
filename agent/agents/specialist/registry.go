package specialist

import (
	contractx "github.com/tanpawarit/salon-agent-gateway/agent/contract"
)

// NewAll builds one agent per Kind, in declaration order.
func NewAll() ([]contractx.Agent, error) {
	agents := make([]contractx.Agent, 0, len(Kinds))
	for _, kind := range Kinds {
		a, err := New(kind)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// RegisterAll registers every salon agent with reg.
func RegisterAll(reg contractx.Registry) error {
	agents, err := NewAll()
	if err != nil {
		return err
	}
	for _, a := range agents {
		if err := reg.Register(a); err != nil {
			return err
		}
	}
	return nil
}

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/salon-agent-gateway/agent/contract"
)

type DuplicatePolicy string

const (
	// PolicyReplace overwrites the earlier binding and logs a warning.
	PolicyReplace DuplicatePolicy = "replace"
	PolicyReject  DuplicatePolicy = "reject"
)

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyReplace:
		return PolicyReplace, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("%w: unknown duplicate policy=%q", contractx.ErrValidation, s)
	}
}

var _ contractx.Registry = (*Registry)(nil)

type Registry struct {
	mu     sync.RWMutex
	agents map[string]contractx.Agent
	policy DuplicatePolicy
}

func New(policy DuplicatePolicy) *Registry {
	if policy == "" {
		policy = PolicyReplace
	}
	return &Registry{
		agents: make(map[string]contractx.Agent, 8),
		policy: policy,
	}
}

func (r *Registry) Register(agent contractx.Agent) error {
	if isNil(agent) {
		return fmt.Errorf("%w: agent is nil", contractx.ErrValidation)
	}
	name := agent.Name()
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: agent name is empty", contractx.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[name]; exists {
		if r.policy == PolicyReject {
			return fmt.Errorf("%w: name=%q", contractx.ErrDuplicateAgent, name)
		}
		log.Warn().Str("agent", name).Msg("agent re-registered, replacing previous binding")
	}
	r.agents[name] = agent
	return nil
}

// MustRegister panics on the first failed registration.
func (r *Registry) MustRegister(agents ...contractx.Agent) {
	for _, a := range agents {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Lookup(name string) (contractx.Agent, error) {
	r.mu.RLock()
	agent, ok := r.agents[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &contractx.AgentNotFoundError{Name: name}
	}
	return agent, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// isNil also catches a typed nil pointer stored in the interface.
func isNil(agent contractx.Agent) bool {
	if agent == nil {
		return true
	}
	v := reflect.ValueOf(agent)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

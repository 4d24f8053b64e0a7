// Package scenario defines driving scenarios: named, time-indexed control
// policies mapping elapsed time to throttle and brake percentages. Scenarios
// are pure and stateless across calls; they never touch twin state.
package scenario

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownScenario is returned when a requested scenario name is not
// registered.
var ErrUnknownScenario = errors.New("unknown scenario")

// ControlInput is one control demand, both fields in [0,100].
type ControlInput struct {
	ThrottlePct float64
	BrakePct    float64
}

// Scenario is a (name, duration, control function) triple. Inputs must be
// deterministic and side-effect free.
type Scenario struct {
	Name      string
	DurationS float64
	Inputs    func(t float64) ControlInput
}

// Registry is a closed set of scenarios keyed by lowercase name. Adding a
// new profile means registering a new triple, not subclassing.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Scenario
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Scenario)}
}

// DefaultRegistry returns a registry preloaded with the built-in urban,
// highway, aggressive and eco profiles.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range []Scenario{Urban(), Highway(), Aggressive(), Eco()} {
		r.MustRegister(s)
	}
	return r
}

// Register adds a scenario under its lowercase name.
func (r *Registry) Register(s Scenario) error {
	if s.Name == "" || s.DurationS <= 0 || s.Inputs == nil {
		return fmt.Errorf("scenario %q: name, positive duration and inputs function are required", s.Name)
	}
	key := strings.ToLower(s.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[key]; ok {
		return fmt.Errorf("scenario %q already registered", key)
	}
	r.m[key] = s
	return nil
}

// MustRegister panics on registration errors. Intended for built-ins.
func (r *Registry) MustRegister(s Scenario) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Get resolves a scenario by name, case-insensitively.
func (r *Registry) Get(name string) (Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.m[strings.ToLower(name)]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return s, nil
}

// Names returns the registered scenario names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.m))
	for k := range r.m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

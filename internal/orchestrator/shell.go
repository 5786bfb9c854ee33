// Package orchestrator is the OrchestratorShell: fixed-order component
// startup, cycle-rejecting dependency validation, and typed providers,
// replacing a global-singleton service-locator pattern with explicit
// lifecycle management.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"zhtp-network/internal/eventbus"
	"zhtp-network/internal/xerrors"
)

// Stage is one position in the fixed startup order. Components may
// only declare dependencies on strictly earlier stages; this makes a
// dependency cycle structurally unrepresentable rather than merely
// checked at runtime.
type Stage int

const (
	StageCrypto Stage = iota
	StageProof
	StageIdentity
	StageStorage
	StageNetwork
	StageBlockchain
	StageConsensus
	StageEconomics
	StageProtocols
	numStages
)

func (s Stage) String() string {
	names := [...]string{"crypto", "proof", "identity", "storage", "network", "blockchain", "consensus", "economics", "protocols"}
	if int(s) < 0 || int(s) >= len(names) {
		return "unknown"
	}
	return names[s]
}

// Component is the lifecycle contract every orchestrated subsystem
// implements.
type Component interface {
	Name() string
	Stage() Stage
	Dependencies() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	HealthCheck() error
	HandleMessage(ctx context.Context, msg any) error
	GetMetrics() map[string]float64
}

// Shell registers components in dependency order and drives their
// lifecycle as one unit.
type Shell struct {
	mu         sync.Mutex
	components []Component
	byName     map[string]Component
	started    []Component
	Bus        *eventbus.Bus
}

// NewShell creates an empty Shell with its own event bus.
func NewShell() *Shell {
	return &Shell{byName: make(map[string]Component), Bus: eventbus.New()}
}

// Register adds a component, rejecting a duplicate name or a
// dependency on a component in the same stage or a later one —
// the cycle-freedom check the startup order exists to enforce.
func (s *Shell) Register(c Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[c.Name()]; exists {
		return xerrors.New(xerrors.KindInput, "orchestrator.Shell.Register", fmt.Errorf("duplicate component %q", c.Name()))
	}
	for _, depName := range c.Dependencies() {
		dep, ok := s.byName[depName]
		if !ok {
			return xerrors.New(xerrors.KindInput, "orchestrator.Shell.Register", fmt.Errorf("component %q depends on unregistered %q", c.Name(), depName))
		}
		if dep.Stage() >= c.Stage() {
			return xerrors.New(xerrors.KindInput, "orchestrator.Shell.Register", fmt.Errorf("component %q (stage %s) cannot depend on %q (stage %s): dependencies must be strictly earlier", c.Name(), c.Stage(), depName, dep.Stage()))
		}
	}
	s.components = append(s.components, c)
	s.byName[c.Name()] = c
	return nil
}

// Start brings up every registered component in stage order,
// publishing ComponentStarted for each, and stops whatever already
// started if any component fails, so a partial startup never leaves
// the shell in a half-running state.
func (s *Shell) Start(ctx context.Context) error {
	s.mu.Lock()
	ordered := orderByStage(s.components)
	s.mu.Unlock()

	for _, c := range ordered {
		if err := c.Start(ctx); err != nil {
			s.stopStarted(ctx)
			return xerrors.New(xerrors.KindState, "orchestrator.Shell.Start", fmt.Errorf("component %q: %w", c.Name(), err))
		}
		s.mu.Lock()
		s.started = append(s.started, c)
		s.mu.Unlock()
		s.Bus.Publish(eventbus.Event{Topic: eventbus.TopicComponentStarted, Payload: c.Name()})
	}
	return nil
}

// Stop tears down every started component in reverse startup order.
func (s *Shell) Stop(ctx context.Context) error {
	return s.stopStarted(ctx)
}

func (s *Shell) stopStarted(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = nil
	s.mu.Unlock()

	var firstErr error
	for i := len(started) - 1; i >= 0; i-- {
		c := started[i]
		if err := c.Stop(ctx); err != nil && firstErr == nil {
			firstErr = xerrors.New(xerrors.KindState, "orchestrator.Shell.Stop", fmt.Errorf("component %q: %w", c.Name(), err))
		}
		s.Bus.Publish(eventbus.Event{Topic: eventbus.TopicComponentStopped, Payload: c.Name()})
	}
	return firstErr
}

// HealthCheck runs every registered component's health check,
// returning the first failure found.
func (s *Shell) HealthCheck() error {
	s.mu.Lock()
	components := append([]Component(nil), s.components...)
	s.mu.Unlock()
	for _, c := range components {
		if err := c.HealthCheck(); err != nil {
			return xerrors.New(xerrors.KindState, "orchestrator.Shell.HealthCheck", fmt.Errorf("component %q: %w", c.Name(), err))
		}
	}
	return nil
}

// Metrics aggregates GetMetrics from every registered component,
// namespaced by component name.
func (s *Shell) Metrics() map[string]map[string]float64 {
	s.mu.Lock()
	components := append([]Component(nil), s.components...)
	s.mu.Unlock()
	out := make(map[string]map[string]float64, len(components))
	for _, c := range components {
		out[c.Name()] = c.GetMetrics()
	}
	return out
}

func orderByStage(components []Component) []Component {
	out := make([]Component, len(components))
	copy(out, components)
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j-1].Stage() > out[j].Stage() {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}

// Package assembly builds and runs a system of active components: an ordered
// component set, the rate groups that schedule them, and the deployment
// configuration describing both.
//
// Wiring happens once, at assembly time, before Seal; afterwards the
// component set and port connections are immutable. Components start in
// registration order and stop in reverse.
package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/activekit/component"
	"github.com/c360/activekit/errors"
)

// Assembly owns the components of one deployment and orchestrates their
// lifecycle.
type Assembly struct {
	id     string
	name   string
	logger *slog.Logger

	mu         sync.Mutex
	order      []string
	components map[string]component.Component
	rateGroups []*RateGroup
	sealed     bool
	started    bool
}

// New creates an empty assembly. Each assembly gets a unique instance id so
// logs from multiple deployments in one process stay distinguishable.
func New(name string, logger *slog.Logger) *Assembly {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Assembly{
		id:         id,
		name:       name,
		logger:     logger.With("assembly", name, "assembly_id", id),
		components: make(map[string]component.Component),
	}
}

// ID returns the assembly's unique instance id.
func (a *Assembly) ID() string {
	return a.id
}

// Add registers a component. Components start in Add order and stop in
// reverse. Adding after Seal is an assembly defect.
func (a *Assembly) Add(name string, comp component.Component) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return errors.WrapInvalid(errors.ErrAssemblySealed, "Assembly", "Add", name)
	}
	if name == "" || comp == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Assembly", "Add", "argument validation")
	}
	if _, exists := a.components[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("component %q already added", name),
			"Assembly", "Add", "duplicate check")
	}

	a.components[name] = comp
	a.order = append(a.order, name)
	return nil
}

// AddRateGroup registers a scheduler for this assembly. Rate groups start
// after all components and stop before any component.
func (a *Assembly) AddRateGroup(rg *RateGroup) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return errors.WrapInvalid(errors.ErrAssemblySealed, "Assembly", "AddRateGroup", rg.Name())
	}
	a.rateGroups = append(a.rateGroups, rg)
	return nil
}

// Seal freezes the component set. All port wiring must be complete before
// sealing; the wiring table is immutable afterwards.
func (a *Assembly) Seal() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sealed = true
}

// Component returns a registered component by name, or nil.
func (a *Assembly) Component(name string) component.Component {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.components[name]
}

// Initialize initializes every component in registration order. The first
// failure aborts: a partially-initialized assembly is a configuration error,
// not something to run degraded.
func (a *Assembly) Initialize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.sealed {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Assembly", "Initialize", "assembly not sealed")
	}

	for _, name := range a.order {
		if err := a.components[name].Initialize(); err != nil {
			return errors.Wrap(err, "Assembly", "Initialize", name)
		}
		a.logger.Debug("component initialized", "component", name)
	}
	return nil
}

// Start starts every component in registration order, then the rate groups.
// On failure, everything already started is stopped in reverse order before
// the error is returned.
func (a *Assembly) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Assembly", "Start", "state check")
	}

	var startedNames []string
	for _, name := range a.order {
		if err := a.components[name].Start(ctx); err != nil {
			a.rollback(startedNames)
			return errors.Wrap(err, "Assembly", "Start", name)
		}
		startedNames = append(startedNames, name)
		a.logger.Info("component started", "component", name)
	}

	for _, rg := range a.rateGroups {
		rg.Start(ctx)
		a.logger.Info("rate group started", "rate_group", rg.Name(), "period", rg.Period())
	}

	a.started = true
	return nil
}

func (a *Assembly) rollback(startedNames []string) {
	for i := len(startedNames) - 1; i >= 0; i-- {
		name := startedNames[i]
		if err := a.components[name].Stop(5 * time.Second); err != nil {
			a.logger.Error("rollback stop failed", "component", name, "error", err)
		}
	}
}

// Stop stops the rate groups first (no more ticks), then every component in
// reverse registration order. All stops are attempted; the first error is
// returned.
func (a *Assembly) Stop(timeout time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return errors.WrapInvalid(errors.ErrNotStarted, "Assembly", "Stop", "state check")
	}

	for _, rg := range a.rateGroups {
		rg.Stop(timeout)
		a.logger.Info("rate group stopped", "rate_group", rg.Name())
	}

	var firstErr error
	for i := len(a.order) - 1; i >= 0; i-- {
		name := a.order[i]
		if err := a.components[name].Stop(timeout); err != nil {
			a.logger.Error("component stop failed", "component", name, "error", err)
			if firstErr == nil {
				firstErr = errors.Wrap(err, "Assembly", "Stop", name)
			}
			continue
		}
		a.logger.Info("component stopped", "component", name)
	}

	a.started = false
	return firstErr
}

// Health reports per-component health plus rate group failures.
func (a *Assembly) Health() Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	report := Report{
		Assembly:   a.name,
		ID:         a.id,
		Healthy:    a.started,
		Components: make(map[string]component.Health, len(a.components)),
	}

	for name, comp := range a.components {
		h := comp.Health()
		report.Components[name] = h
		if !h.Healthy {
			report.Healthy = false
		}
	}

	for _, rg := range a.rateGroups {
		if err := rg.LastError(); err != nil {
			report.Healthy = false
			report.RateGroupErrors = append(report.RateGroupErrors,
				fmt.Sprintf("%s: %v", rg.Name(), err))
		}
	}

	return report
}

// Report is the aggregate health of one assembly.
type Report struct {
	Assembly        string                      `json:"assembly"`
	ID              string                      `json:"id"`
	Healthy         bool                        `json:"healthy"`
	Components      map[string]component.Health `json:"components"`
	RateGroupErrors []string                    `json:"rate_group_errors,omitempty"`
}

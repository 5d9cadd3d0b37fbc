package assembly

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/activekit/component"
	"github.com/c360/activekit/errors"
)

// RateGroup drives the scheduling ticks for a set of components sharing one
// period. On every period it invokes each member's tick in registration
// order, passing the member's position and a monotonically increasing call
// context, triggering exactly one bounded drain per member per tick.
//
// A fatal error from any member halts the whole group: fatal means the
// assembly is defective, and continuing to tick a broken system would only
// smear the damage. The error is retained for health reporting.
type RateGroup struct {
	name    string
	period  time.Duration
	members []component.Tickable
	logger  *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
	running bool
}

// NewRateGroup creates a rate group with the given period. Periods below one
// millisecond are clamped to one millisecond.
func NewRateGroup(name string, period time.Duration, logger *slog.Logger) *RateGroup {
	if period < time.Millisecond {
		period = time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RateGroup{
		name:   name,
		period: period,
		logger: logger.With("rate_group", name),
	}
}

// Name returns the rate group's name.
func (rg *RateGroup) Name() string {
	return rg.name
}

// Period returns the tick period.
func (rg *RateGroup) Period() time.Duration {
	return rg.period
}

// AddMember appends a component to the tick order. Members added after
// Start are an assembly defect and ignored with a logged error.
func (rg *RateGroup) AddMember(member component.Tickable) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	if rg.running {
		rg.logger.Error("member added after start, ignored")
		return
	}
	rg.members = append(rg.members, member)
}

// Start begins ticking on a dedicated goroutine.
func (rg *RateGroup) Start(ctx context.Context) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	if rg.running {
		return
	}

	tickCtx, cancel := context.WithCancel(ctx)
	rg.cancel = cancel
	rg.done = make(chan struct{})
	rg.running = true

	go rg.run(tickCtx)
}

func (rg *RateGroup) run(ctx context.Context) {
	defer close(rg.done)

	ticker := time.NewTicker(rg.period)
	defer ticker.Stop()

	var callContext uint32
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			callContext++
			if halted := rg.tickAll(callContext); halted {
				return
			}
		}
	}
}

// tickAll runs one tick across all members. Returns true if a fatal error
// halted the group.
func (rg *RateGroup) tickAll(callContext uint32) bool {
	for i, member := range rg.members {
		err := member.Tick(component.TickContext{Port: i, Context: callContext})
		if err == nil {
			continue
		}
		if errors.IsFatal(err) {
			rg.logger.Error("fatal dispatch error, halting rate group",
				"member", i, "error", err)
			rg.mu.Lock()
			rg.lastErr = err
			rg.mu.Unlock()
			return true
		}
		rg.logger.Warn("tick returned error", "member", i, "error", err)
	}
	return false
}

// Stop cancels the ticker and waits up to timeout for the tick goroutine to
// exit.
func (rg *RateGroup) Stop(timeout time.Duration) {
	rg.mu.Lock()
	if !rg.running {
		rg.mu.Unlock()
		return
	}
	rg.running = false
	cancel := rg.cancel
	done := rg.done
	rg.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(timeout):
		rg.logger.Error("rate group did not stop within timeout", "timeout", timeout)
	}
}

// LastError returns the fatal error that halted the group, if any.
func (rg *RateGroup) LastError() error {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	return rg.lastErr
}

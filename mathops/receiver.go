package mathops

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/c360/activekit/component"
	"github.com/c360/activekit/errors"
	"github.com/c360/activekit/event"
	"github.com/c360/activekit/param"
)

// Receiver command opcodes.
const (
	// OpcodeSetFactor updates the FACTOR parameter through the validated
	// update path. Payload: float64.
	OpcodeSetFactor component.Opcode = 0x200
	// OpcodeClearEventThrottle lifts suppression of the FACTOR_UPDATED event.
	// No payload.
	OpcodeClearEventThrottle component.Opcode = 0x201
)

// ParamFactor scales every computed result before it leaves the receiver.
const ParamFactor param.ID = "FACTOR"

const (
	defaultFactor = 1.0

	// FACTOR_UPDATED is informational and updates can be commanded in bursts,
	// so it suppresses after a few emissions until explicitly cleared.
	factorUpdatedThreshold = 3

	// Factor magnitude bound. Keeps scaled results representable without
	// gating legitimate operating ranges.
	factorLimit = 1e6
)

// Receiver is the queued computation component: it accepts math requests on
// an async port, applies the FACTOR parameter, and forwards the product on
// its result output. All work happens inside scheduled drain passes.
type Receiver struct {
	*component.Active

	mathOpIn  *component.AsyncInput[Request]
	schedIn   *component.SyncInput[component.TickContext]
	resultOut *component.Output[float64]

	factorThrottle *event.Throttle
}

// NewReceiver creates a receiver with the given instance name and queue
// capacity.
func NewReceiver(name string, queueCapacity int, deps component.Dependencies) (*Receiver, error) {
	base, err := component.NewActive(name, queueCapacity, deps)
	if err != nil {
		return nil, err
	}

	r := &Receiver{
		Active:         base,
		factorThrottle: event.NewThrottle(factorUpdatedThreshold),
	}

	r.mathOpIn, err = component.NewAsyncInput(base, "mathOpIn", r.handleMathOp)
	if err != nil {
		return nil, err
	}
	r.schedIn = component.NewSyncInput(base, "schedIn", base.Tick)
	r.resultOut = component.NewOutput[float64](base, "mathResultOut")

	params := base.Params()
	if err := params.Define(ParamFactor, param.Float64Range(-factorLimit, factorLimit)); err != nil {
		return nil, err
	}
	params.OnUpdate(r.parameterUpdated)

	if err := base.Commands().Register(OpcodeSetFactor, r.cmdSetFactor); err != nil {
		return nil, err
	}
	if err := base.Commands().Register(OpcodeClearEventThrottle, r.cmdClearEventThrottle); err != nil {
		return nil, err
	}

	return r, nil
}

// Meta returns the receiver's metadata.
func (r *Receiver) Meta() component.Metadata {
	return component.Metadata{
		Name:        r.Name(),
		Type:        TypeReceiver,
		Description: "Queued math computation with parameter-scaled results",
		Version:     "1.0.0",
	}
}

// MathOpIn is the async request input port.
func (r *Receiver) MathOpIn() *component.AsyncInput[Request] {
	return r.mathOpIn
}

// SchedIn is the scheduling tick input; each tick runs one bounded drain.
func (r *Receiver) SchedIn() *component.SyncInput[component.TickContext] {
	return r.schedIn
}

// MathResultOut is the computed result output port.
func (r *Receiver) MathResultOut() *component.Output[float64] {
	return r.resultOut
}

// Initialize loads parameter defaults. FACTOR starts at 1.0 with Default
// validity so computation can trust it before any ground update arrives.
func (r *Receiver) Initialize() error {
	if err := r.Params().LoadDefault(ParamFactor, defaultFactor); err != nil {
		return err
	}
	return r.MarkInitialized()
}

// Start marks the receiver running. The dispatch loop is externally driven
// through schedIn, so there is no goroutine to spawn here.
func (r *Receiver) Start(_ context.Context) error {
	return r.MarkStarted()
}

// Stop marks the receiver stopped and closes its queue.
func (r *Receiver) Stop(_ time.Duration) error {
	return r.MarkStopped()
}

// handleMathOp computes one request, scales by FACTOR, and invokes the
// result output exactly once. A trusted FACTOR read is a precondition: an
// Uninitialized parameter here means Initialize never ran, which is fatal.
func (r *Receiver) handleMathOp(req Request) error {
	var res float64
	switch req.Op {
	case OpAdd:
		res = req.Val1 + req.Val2
	case OpSub:
		res = req.Val1 - req.Val2
	case OpMul:
		res = req.Val1 * req.Val2
	case OpDiv:
		res = req.Val1 / req.Val2
	default:
		return errors.WrapFatal(
			fmt.Errorf("operation %d outside enumeration", int(req.Op)),
			r.Name(), "handleMathOp", "operation check")
	}

	factor, validity, err := param.GetAs[float64](r.Params(), ParamFactor)
	if err != nil {
		return err
	}
	if !validity.Trusted() {
		return errors.WrapFatal(errors.ErrParamUninitialized, r.Name(), "handleMathOp", string(ParamFactor))
	}
	res *= factor

	if math.IsNaN(res) || math.IsInf(res, 0) {
		// Division by zero and overflow are legitimate inputs; the non-finite
		// result still propagates so consumers see what happened.
		r.EmitEvent(event.New(r.Name(), "RESULT_NON_FINITE", event.SeverityWarning,
			fmt.Sprintf("%s produced non-finite result %v", req.Op, res)).
			WithArgs(map[string]any{"op": req.Op.String(), "result": res}))
	}

	r.EmitEvent(event.New(r.Name(), "OPERATION_PERFORMED", event.SeverityActivityHigh,
		fmt.Sprintf("%s operation performed", req.Op)).
		WithArgs(map[string]any{"op": req.Op.String()}))
	r.EmitTelemetry("OPERATION", req.Op.String())

	return r.resultOut.Invoke(res)
}

// parameterUpdated runs synchronously inside Store.Set, after the new value
// is visible. The confirmation event is throttled; the telemetry write is not.
func (r *Receiver) parameterUpdated(id param.ID) {
	if id != ParamFactor {
		return
	}

	factor, _, err := param.GetAs[float64](r.Params(), ParamFactor)
	if err != nil {
		r.Logger().Error("factor readback failed after update", "error", err)
		return
	}

	r.EmitThrottled(r.factorThrottle, event.New(r.Name(), "FACTOR_UPDATED", event.SeverityActivityHigh,
		fmt.Sprintf("factor updated to %v", factor)).
		WithArgs(map[string]any{"factor": factor}))
	r.EmitTelemetry("FACTOR", factor)
}

func (r *Receiver) cmdSetFactor(_ uint32, payload any) error {
	f, ok := payload.(float64)
	if !ok {
		return errors.WrapInvalid(errors.ErrInvalidValue, r.Name(), "cmdSetFactor",
			fmt.Sprintf("got %T, want float64", payload))
	}
	return r.Params().Set(ParamFactor, f)
}

func (r *Receiver) cmdClearEventThrottle(_ uint32, _ any) error {
	if r.factorThrottle.Clear() {
		r.EmitEvent(event.New(r.Name(), "THROTTLE_CLEARED", event.SeverityActivityHigh,
			"FACTOR_UPDATED event throttle cleared"))
	}
	return nil
}

package mathops

import (
	"context"
	"fmt"
	"time"

	"github.com/c360/activekit/component"
	"github.com/c360/activekit/errors"
	"github.com/c360/activekit/event"
)

// OpcodeDoMath requests one math operation. Payload: Request.
const OpcodeDoMath component.Opcode = 0x100

// doMathRetryAttempts bounds backpressure retries when the receiver's queue
// is momentarily full.
const doMathRetryAttempts = 3

// Sender is the command-driven requester: DO_MATH commands fan out as math
// requests on its output port, and results arriving on its async input are
// reported as telemetry and events.
type Sender struct {
	*component.Active

	mathOpOut    *component.Output[Request]
	mathResultIn *component.AsyncInput[float64]
	schedIn      *component.SyncInput[component.TickContext]
}

// NewSender creates a sender with the given instance name and queue capacity.
func NewSender(name string, queueCapacity int, deps component.Dependencies) (*Sender, error) {
	base, err := component.NewActive(name, queueCapacity, deps)
	if err != nil {
		return nil, err
	}

	s := &Sender{Active: base}
	s.mathOpOut = component.NewOutput[Request](base, "mathOpOut")
	s.mathResultIn, err = component.NewAsyncInput(base, "mathResultIn", s.handleResult)
	if err != nil {
		return nil, err
	}
	s.schedIn = component.NewSyncInput(base, "schedIn", base.Tick)

	if err := base.Commands().Register(OpcodeDoMath, s.cmdDoMath); err != nil {
		return nil, err
	}

	return s, nil
}

// Meta returns the sender's metadata.
func (s *Sender) Meta() component.Metadata {
	return component.Metadata{
		Name:        s.Name(),
		Type:        TypeSender,
		Description: "Command-driven math request source and result reporter",
		Version:     "1.0.0",
	}
}

// MathOpOut is the request output port.
func (s *Sender) MathOpOut() *component.Output[Request] {
	return s.mathOpOut
}

// MathResultIn is the async result input port.
func (s *Sender) MathResultIn() *component.AsyncInput[float64] {
	return s.mathResultIn
}

// SchedIn is the scheduling tick input; each tick runs one bounded drain.
func (s *Sender) SchedIn() *component.SyncInput[component.TickContext] {
	return s.schedIn
}

// Initialize completes construction-time setup.
func (s *Sender) Initialize() error {
	return s.MarkInitialized()
}

// Start marks the sender running.
func (s *Sender) Start(_ context.Context) error {
	return s.MarkStarted()
}

// Stop marks the sender stopped and closes its queue.
func (s *Sender) Stop(_ time.Duration) error {
	return s.MarkStopped()
}

// cmdDoMath validates and forwards one request. A full receiver queue is
// transient backpressure and retried briefly; exhausting the retries fails
// the command so the caller sees EXECUTION_ERROR rather than a lost request.
func (s *Sender) cmdDoMath(_ uint32, payload any) error {
	req, ok := payload.(Request)
	if !ok {
		return errors.WrapInvalid(errors.ErrInvalidValue, s.Name(), "cmdDoMath",
			fmt.Sprintf("got %T, want Request", payload))
	}
	if !req.Op.Valid() {
		return errors.WrapInvalid(errors.ErrInvalidValue, s.Name(), "cmdDoMath",
			fmt.Sprintf("operation %d outside enumeration", int(req.Op)))
	}

	s.EmitTelemetry("VAL1", req.Val1)
	s.EmitTelemetry("OP", req.Op.String())
	s.EmitTelemetry("VAL2", req.Val2)
	s.EmitEvent(event.New(s.Name(), "COMMAND_RECV", event.SeverityActivityLow,
		fmt.Sprintf("math command received: %v %s %v", req.Val1, req.Op, req.Val2)).
		WithArgs(map[string]any{"val1": req.Val1, "op": req.Op.String(), "val2": req.Val2}))

	return s.mathOpOut.InvokeRetry(context.Background(), req, errors.RetryPolicy(doMathRetryAttempts))
}

// handleResult reports one computed result arriving from the receiver.
func (s *Sender) handleResult(result float64) error {
	s.EmitTelemetry("RESULT", result)
	s.EmitEvent(event.New(s.Name(), "RESULT", event.SeverityActivityHigh,
		fmt.Sprintf("math result is %v", result)).
		WithArgs(map[string]any{"result": result}))
	return nil
}

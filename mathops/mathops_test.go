package mathops

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/activekit/component"
	"github.com/c360/activekit/errors"
	"github.com/c360/activekit/event"
	"github.com/c360/activekit/param"
)

// harness wires a sender/receiver pair the way a deployment does, with a
// memory sink and a response collector, driven by manual drains.
type harness struct {
	sender    *Sender
	receiver  *Receiver
	sink      *event.MemorySink
	responses *responseCollector
}

type responseCollector struct {
	*component.Active
	responses []component.Response
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	sink := event.NewMemorySink()
	deps := component.Dependencies{Sink: sink}

	sender, err := NewSender("mathSender", 8, deps)
	require.NoError(t, err)
	receiver, err := NewReceiver("mathReceiver", 8, deps)
	require.NoError(t, err)

	base, err := component.NewActive("ground", 16, deps)
	require.NoError(t, err)
	rc := &responseCollector{Active: base}
	respIn, err := component.NewAsyncInput(base, "respIn", func(r component.Response) error {
		rc.responses = append(rc.responses, r)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, sender.MathOpOut().Connect(receiver.MathOpIn()))
	require.NoError(t, receiver.MathResultOut().Connect(sender.MathResultIn()))
	require.NoError(t, sender.CmdResponseOut().Connect(respIn))
	require.NoError(t, receiver.CmdResponseOut().Connect(respIn))

	require.NoError(t, sender.Initialize())
	require.NoError(t, receiver.Initialize())
	require.NoError(t, sender.Start(context.Background()))
	require.NoError(t, receiver.Start(context.Background()))

	return &harness{sender: sender, receiver: receiver, sink: sink, responses: rc}
}

// tick runs one full scheduling round: sender, receiver, then the response
// collector, mirroring rate group member order.
func (h *harness) tick(t *testing.T) {
	t.Helper()
	tick := component.TickContext{}
	require.NoError(t, h.sender.SchedIn().Invoke(tick))
	require.NoError(t, h.receiver.SchedIn().Invoke(tick))
	_, err := h.responses.Drain()
	require.NoError(t, err)
}

func TestMathOpString(t *testing.T) {
	assert.Equal(t, "ADD", OpAdd.String())
	assert.Equal(t, "SUB", OpSub.String())
	assert.Equal(t, "MUL", OpMul.String())
	assert.Equal(t, "DIV", OpDiv.String())
	assert.Equal(t, "MathOp(9)", MathOp(9).String())
}

func TestMathOpValid(t *testing.T) {
	assert.True(t, OpAdd.Valid())
	assert.True(t, OpDiv.Valid())
	assert.False(t, MathOp(-1).Valid())
	assert.False(t, numOps.Valid())
}

func TestDoMathEndToEnd(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want float64
	}{
		{"add", Request{Val1: 2, Op: OpAdd, Val2: 3}, 5},
		{"sub", Request{Val1: 2, Op: OpSub, Val2: 3}, -1},
		{"mul", Request{Val1: 2, Op: OpMul, Val2: 3}, 6},
		{"div", Request{Val1: 6, Op: OpDiv, Val2: 3}, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)

			require.NoError(t, h.sender.SubmitCommand(OpcodeDoMath, 1, tc.req))

			// Round 1: sender handles the command and forwards the request.
			// Round 2: receiver computes and sends the result back.
			// Round 3: sender reports the result.
			h.tick(t)
			h.tick(t)
			h.tick(t)

			results := h.sink.SamplesByChannel("RESULT")
			require.Len(t, results, 1)
			assert.Equal(t, tc.want, results[0].Value)

			require.Len(t, h.responses.responses, 1)
			assert.Equal(t, component.Response{
				Opcode: OpcodeDoMath, Seq: 1, Status: component.StatusOK,
			}, h.responses.responses[0])

			// Request telemetry and activity events
			assert.Len(t, h.sink.SamplesByChannel("VAL1"), 1)
			assert.Len(t, h.sink.SamplesByChannel("OP"), 1)
			assert.Len(t, h.sink.SamplesByChannel("VAL2"), 1)
			assert.Len(t, h.sink.EventsByID("COMMAND_RECV"), 1)
			assert.Len(t, h.sink.EventsByID("OPERATION_PERFORMED"), 1)
			assert.Len(t, h.sink.EventsByID("RESULT"), 1)
		})
	}
}

func TestFactorScalesResults(t *testing.T) {
	h := newHarness(t)

	// Default factor is 1.0 with Default validity
	factor, validity, err := param.GetAs[float64](h.receiver.Params(), ParamFactor)
	require.NoError(t, err)
	assert.Equal(t, 1.0, factor)
	assert.Equal(t, param.Default, validity)

	// 2 + 3 with default factor
	require.NoError(t, h.sender.SubmitCommand(OpcodeDoMath, 1, Request{Val1: 2, Op: OpAdd, Val2: 3}))
	h.tick(t)
	h.tick(t)
	h.tick(t)

	// Update factor to 2.0, then repeat
	require.NoError(t, h.receiver.SubmitCommand(OpcodeSetFactor, 2, 2.0))
	h.tick(t)

	require.NoError(t, h.sender.SubmitCommand(OpcodeDoMath, 3, Request{Val1: 2, Op: OpAdd, Val2: 3}))
	h.tick(t)
	h.tick(t)
	h.tick(t)

	results := h.sink.SamplesByChannel("RESULT")
	require.Len(t, results, 2)
	assert.Equal(t, 5.0, results[0].Value)
	assert.Equal(t, 10.0, results[1].Value, "explicit factor scales subsequent results")

	_, validity, err = param.GetAs[float64](h.receiver.Params(), ParamFactor)
	require.NoError(t, err)
	assert.Equal(t, param.Valid, validity)
}

func TestSetFactorValidation(t *testing.T) {
	h := newHarness(t)

	// Wrong payload type
	require.NoError(t, h.receiver.SubmitCommand(OpcodeSetFactor, 1, "two"))
	// Out of range
	require.NoError(t, h.receiver.SubmitCommand(OpcodeSetFactor, 2, 1e9))
	h.tick(t)
	h.tick(t)

	require.Len(t, h.responses.responses, 2)
	for _, resp := range h.responses.responses {
		assert.Equal(t, component.StatusExecutionError, resp.Status)
	}

	// Rejected updates leave the default in force
	factor, validity, err := param.GetAs[float64](h.receiver.Params(), ParamFactor)
	require.NoError(t, err)
	assert.Equal(t, 1.0, factor)
	assert.Equal(t, param.Default, validity)
	assert.Empty(t, h.sink.EventsByID("FACTOR_UPDATED"))
}

func TestFactorUpdatedThrottle(t *testing.T) {
	h := newHarness(t)

	// Five accepted updates; the event throttles after three
	for i := 1; i <= 5; i++ {
		require.NoError(t, h.receiver.SubmitCommand(OpcodeSetFactor, uint32(i), float64(i)))
	}
	h.tick(t)
	h.tick(t)

	updated := h.sink.EventsByID("FACTOR_UPDATED")
	require.Len(t, updated, 3)
	assert.False(t, updated[0].Throttled)
	assert.True(t, updated[2].Throttled, "saturating emission carries the flag")

	// Telemetry is not throttled; every accepted update samples
	assert.Len(t, h.sink.SamplesByChannel("FACTOR"), 5)

	// All five commands still succeed: throttling gates the event, not the update
	require.Len(t, h.responses.responses, 5)
	for _, resp := range h.responses.responses {
		assert.Equal(t, component.StatusOK, resp.Status)
	}

	// Clearing re-arms the throttle and announces it once
	require.NoError(t, h.receiver.SubmitCommand(OpcodeClearEventThrottle, 6, nil))
	h.tick(t)
	h.tick(t)

	require.Len(t, h.sink.EventsByID("THROTTLE_CLEARED"), 1)

	require.NoError(t, h.receiver.SubmitCommand(OpcodeSetFactor, 7, 9.0))
	h.tick(t)
	assert.Len(t, h.sink.EventsByID("FACTOR_UPDATED"), 4, "events flow again after clearing")
}

func TestClearThrottleWhenOpen(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.receiver.SubmitCommand(OpcodeClearEventThrottle, 1, nil))
	h.tick(t)
	h.tick(t)

	// Clearing an open throttle acknowledges without the cleared event
	require.Len(t, h.responses.responses, 1)
	assert.Equal(t, component.StatusOK, h.responses.responses[0].Status)
	assert.Empty(t, h.sink.EventsByID("THROTTLE_CLEARED"))
}

func TestDoMathRejectsInvalidRequests(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.sender.SubmitCommand(OpcodeDoMath, 1, "not a request"))
	require.NoError(t, h.sender.SubmitCommand(OpcodeDoMath, 2, Request{Val1: 1, Op: MathOp(9), Val2: 2}))
	h.tick(t)
	h.tick(t)

	require.Len(t, h.responses.responses, 2)
	assert.Equal(t, component.StatusExecutionError, h.responses.responses[0].Status)
	assert.Equal(t, uint32(1), h.responses.responses[0].Seq)
	assert.Equal(t, component.StatusExecutionError, h.responses.responses[1].Status)
	assert.Equal(t, uint32(2), h.responses.responses[1].Seq)

	// Nothing reached the receiver
	assert.Equal(t, 0, h.receiver.QueueDepth())
}

func TestDivisionByZeroPropagatesNonFinite(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.sender.SubmitCommand(OpcodeDoMath, 1, Request{Val1: 1, Op: OpDiv, Val2: 0}))
	h.tick(t)
	h.tick(t)
	h.tick(t)

	// Warned, but the result still flows to telemetry
	require.Len(t, h.sink.EventsByID("RESULT_NON_FINITE"), 1)
	assert.Equal(t, event.SeverityWarning, h.sink.EventsByID("RESULT_NON_FINITE")[0].Severity)

	results := h.sink.SamplesByChannel("RESULT")
	require.Len(t, results, 1)
	assert.True(t, math.IsInf(results[0].Value.(float64), 1))

	require.Len(t, h.responses.responses, 1)
	assert.Equal(t, component.StatusOK, h.responses.responses[0].Status)
}

func TestReceiverUninitializedFactorIsFatal(t *testing.T) {
	sink := event.NewMemorySink()
	receiver, err := NewReceiver("mathReceiver", 8, component.Dependencies{Sink: sink})
	require.NoError(t, err)

	// Initialize deliberately skipped: FACTOR stays Uninitialized
	require.NoError(t, receiver.MathOpIn().Invoke(Request{Val1: 1, Op: OpAdd, Val2: 2}))

	_, err = receiver.Drain()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrParamUninitialized)
	assert.True(t, errors.IsFatal(err))
}

func TestReceiverResultPortUnwired(t *testing.T) {
	sink := event.NewMemorySink()
	receiver, err := NewReceiver("mathReceiver", 8, component.Dependencies{Sink: sink})
	require.NoError(t, err)
	require.NoError(t, receiver.Initialize())

	require.NoError(t, receiver.MathOpIn().Invoke(Request{Val1: 1, Op: OpAdd, Val2: 2}))

	// The computation ran; the lost delivery is counted, not fatal
	n, err := receiver.Drain()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(1), receiver.MathResultOut().Drops())
	assert.Len(t, sink.EventsByID("OPERATION_PERFORMED"), 1)
}

func TestReceiverMeta(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, TypeReceiver, h.receiver.Meta().Type)
	assert.Equal(t, TypeSender, h.sender.Meta().Type)
	assert.Equal(t, "mathReceiver", h.receiver.Meta().Name)
}

func TestRegisterFactories(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, Register(registry))
	assert.ElementsMatch(t, []string{TypeSender, TypeReceiver}, registry.Factories())

	deps := component.Dependencies{Sink: event.NewMemorySink()}
	comp, err := registry.Create("s1", TypeSender, map[string]any{"name": "s1", "queue_capacity": 2}, deps)
	require.NoError(t, err)
	assert.Equal(t, TypeSender, comp.Meta().Type)

	comp, err = registry.Create("r1", TypeReceiver, nil, deps)
	require.NoError(t, err)
	assert.Equal(t, TypeReceiver, comp.Meta().Type)
}

func TestLifecycle(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.sender.Stop(time.Second))
	require.NoError(t, h.receiver.Stop(time.Second))

	// Stopped components reject further work
	err := h.sender.SubmitCommand(OpcodeDoMath, 1, Request{Op: OpAdd})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrQueueClosed)
}

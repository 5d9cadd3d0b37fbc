package event

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityString(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityActivityLow, "activity_low"},
		{SeverityActivityHigh, "activity_high"},
		{SeverityWarning, "warning"},
		{SeverityFatal, "fatal"},
		{Severity(99), "unknown"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.severity.String())
	}
}

func TestNewEvent(t *testing.T) {
	ev := New("mathReceiver", "OPERATION_PERFORMED", SeverityActivityHigh, "ADD operation performed")

	assert.Equal(t, "OPERATION_PERFORMED", ev.ID)
	assert.Equal(t, "mathReceiver", ev.Component)
	assert.Equal(t, SeverityActivityHigh, ev.Severity)
	assert.Equal(t, "ADD operation performed", ev.Message)
	assert.NotZero(t, ev.Time)
	assert.False(t, ev.Throttled)
	assert.Nil(t, ev.Args)
}

func TestEventWithArgs(t *testing.T) {
	ev := New("c", "E", SeverityWarning, "m").WithArgs(map[string]any{"factor": 2.0})
	assert.Equal(t, 2.0, ev.Args["factor"])
}

func TestNewSample(t *testing.T) {
	sample := NewSample("RESULT", 42.0)
	assert.Equal(t, "RESULT", sample.Channel)
	assert.Equal(t, 42.0, sample.Value)
	assert.NotZero(t, sample.Time)
}

func TestThrottleSaturation(t *testing.T) {
	th := NewThrottle(3)

	// First two emissions pass un-flagged
	allowed, saturating := th.Note()
	assert.True(t, allowed)
	assert.False(t, saturating)

	allowed, saturating = th.Note()
	assert.True(t, allowed)
	assert.False(t, saturating)

	// Third emission passes and saturates
	allowed, saturating = th.Note()
	assert.True(t, allowed)
	assert.True(t, saturating)
	assert.True(t, th.Suppressed())

	// Everything after is suppressed
	for i := 0; i < 5; i++ {
		allowed, saturating = th.Note()
		assert.False(t, allowed)
		assert.False(t, saturating)
	}
	assert.Equal(t, 3, th.Count())
}

func TestThrottleClear(t *testing.T) {
	th := NewThrottle(2)
	th.Note()
	th.Note()
	require.True(t, th.Suppressed())

	// Clear on a suppressed throttle reports it, so the owner can emit the
	// one-time cleared notification
	assert.True(t, th.Clear())
	assert.False(t, th.Suppressed())
	assert.Zero(t, th.Count())

	// Clear on an open throttle is a no-op report
	assert.False(t, th.Clear())

	// Full cycle works again after clearing
	allowed, saturating := th.Note()
	assert.True(t, allowed)
	assert.False(t, saturating)
}

func TestThrottleThresholdClamped(t *testing.T) {
	th := NewThrottle(0)

	allowed, saturating := th.Note()
	assert.True(t, allowed)
	assert.True(t, saturating, "threshold clamps to 1, first emission saturates")

	allowed, _ = th.Note()
	assert.False(t, allowed)
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()

	require.NoError(t, sink.EmitEvent(New("c", "A", SeverityActivityLow, "first")))
	require.NoError(t, sink.EmitEvent(New("c", "B", SeverityWarning, "second")))
	require.NoError(t, sink.EmitEvent(New("c", "A", SeverityActivityLow, "third")))
	require.NoError(t, sink.EmitTelemetry(NewSample("X", 1.0)))
	require.NoError(t, sink.EmitTelemetry(NewSample("Y", 2.0)))

	assert.Len(t, sink.Events(), 3)
	assert.Len(t, sink.EventsByID("A"), 2)
	assert.Len(t, sink.EventsByID("B"), 1)
	assert.Empty(t, sink.EventsByID("C"))

	assert.Len(t, sink.Samples(), 2)
	require.Len(t, sink.SamplesByChannel("X"), 1)
	assert.Equal(t, 1.0, sink.SamplesByChannel("X")[0].Value)

	sink.Reset()
	assert.Empty(t, sink.Events())
	assert.Empty(t, sink.Samples())
}

type failingSink struct{}

func (failingSink) EmitEvent(Event) error      { return fmt.Errorf("sink down") }
func (failingSink) EmitTelemetry(Sample) error { return fmt.Errorf("sink down") }

func TestMultiSinkFanOut(t *testing.T) {
	a := NewMemorySink()
	b := NewMemorySink()
	multi := NewMultiSink(a, b)

	require.NoError(t, multi.EmitEvent(New("c", "E", SeverityActivityLow, "m")))
	require.NoError(t, multi.EmitTelemetry(NewSample("X", 1)))

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
	assert.Len(t, a.Samples(), 1)
	assert.Len(t, b.Samples(), 1)
}

func TestMultiSinkContinuesPastFailure(t *testing.T) {
	healthy := NewMemorySink()
	multi := NewMultiSink(failingSink{}, healthy)

	err := multi.EmitEvent(New("c", "E", SeverityActivityLow, "m"))
	require.Error(t, err)

	// Failure of one sink must not starve the others
	assert.Len(t, healthy.Events(), 1)
}

package event

// Throttle rate-limits one event kind: a saturating counter plus a suppressed
// flag. Once the counter reaches the threshold, further emissions are
// suppressed until explicitly cleared, at which point the counter resets and
// a one-time cleared notification is owed to the sink.
//
// A throttle is owned by one component and only touched from its dispatch
// goroutine, so it carries no locking.
type Throttle struct {
	threshold  int
	count      int
	suppressed bool
}

// NewThrottle creates a throttle that suppresses after threshold emissions.
// A threshold below 1 is clamped to 1.
func NewThrottle(threshold int) *Throttle {
	if threshold < 1 {
		threshold = 1
	}
	return &Throttle{threshold: threshold}
}

// Note records one emission attempt. It returns (allowed, saturating):
// allowed is false once the throttle is suppressed; saturating is true on
// exactly the emission that reaches the threshold, so the caller can flag
// that event as the last one before suppression.
func (t *Throttle) Note() (allowed, saturating bool) {
	if t.suppressed {
		return false, false
	}

	t.count++
	if t.count >= t.threshold {
		t.suppressed = true
		return true, true
	}
	return true, false
}

// Clear resets the counter and lifts suppression. It returns true if the
// throttle was suppressed, in which case the owner emits its one-time
// "cleared" notification.
func (t *Throttle) Clear() bool {
	was := t.suppressed
	t.count = 0
	t.suppressed = false
	return was
}

// Suppressed reports whether emissions are currently suppressed.
func (t *Throttle) Suppressed() bool {
	return t.suppressed
}

// Count returns the saturating counter's current value.
func (t *Throttle) Count() int {
	return t.count
}

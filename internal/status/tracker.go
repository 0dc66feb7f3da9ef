// internal/status/tracker.go
package status

import "time"

// Tracker owns the status snapshot across cycles.
// Observe is called once per cycle with the cycle's error (nil on success).
type Tracker struct {
	snap       Snapshot
	errorSince time.Time
}

// NewTracker starts in HealthUnknown.
func NewTracker(model string) *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown, Model: model}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe folds one cycle result into the snapshot and reports whether
// anything a reader would see has changed.
func (t *Tracker) Observe(err error, now time.Time) (Snapshot, bool) {
	if err == nil {
		// Recovery / OK. LastSuccess moves every cycle, so this always
		// counts as a change.
		t.snap.Health = HealthOK
		t.snap.LastErrorCode = 0
		t.snap.LastError = ""
		t.snap.SecondsInError = 0
		t.snap.LastSuccess = now
		t.errorSince = time.Time{}
		return t.snap, true
	}

	changed := false

	if t.snap.Health != HealthError {
		t.snap.Health = HealthError
		t.errorSince = now
		changed = true
	}

	code := CodeOf(err)
	if t.snap.LastErrorCode != code || t.snap.LastError != err.Error() {
		t.snap.LastErrorCode = code
		t.snap.LastError = err.Error()
		changed = true
	}

	// seconds_in_error MUST NOT wrap
	secs := now.Sub(t.errorSince) / time.Second
	if secs > MaxSecondsInError {
		secs = MaxSecondsInError
	}
	if uint16(secs) != t.snap.SecondsInError {
		t.snap.SecondsInError = uint16(secs)
		changed = true
	}

	return t.snap, changed
}

// Package clock abstracts time so the gate's timers can be driven
// deterministically in tests.
//
// Production code uses Real(); tests use Fake(start) and call Advance to
// fire timers synchronously on the calling goroutine.
package clock

import "time"

// Clock is the subset of the time package the gate needs.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the time once d has elapsed.
	After(d time.Duration) <-chan time.Time

	// AfterFunc calls f on its own goroutine (real clock) or on the
	// goroutine calling Advance (fake clock) once d has elapsed.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a handle to a pending AfterFunc callback.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the callback from firing. It returns false if the timer
// already fired or was already stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}
	return t.stopFunc()
}

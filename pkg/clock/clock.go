// Package clock provides an injectable time source.
//
// All components in the session core obtain "now" through a Clock rather
// than calling time.Now directly, so TTL expiry, importance decay, and
// cleanup rate limiting are deterministic under test.
package clock

import (
	"sync"
	"time"
)

// Clock is a source of the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real is a Clock backed by the system clock.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time {
	return time.Now()
}

// System returns a Clock backed by the system clock.
func System() Clock {
	return Real{}
}

// Fake is a manually-advanced Clock for tests.
// The zero value is not usable; construct with NewFake.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a Fake clock frozen at the given time.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the clock's current frozen time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set moves the clock to an absolute time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

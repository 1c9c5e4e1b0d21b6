package clock

import (
	"sync"
	"time"
)

// Clock supplies the created_at and updated_at stamps written by the stores.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}

// NewRealClock reads the system time in UTC, truncated to the microsecond
// precision of the Postgres and Spanner timestamp columns.
func NewRealClock() Clock {
	return Func(func() time.Time {
		return time.Now().UTC().Truncate(time.Microsecond)
	})
}

// MockClock is a manually advanced clock for tests. Safe for concurrent use.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

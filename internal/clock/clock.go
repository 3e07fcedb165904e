package clock

import "time"

// Clock provides time-related functions that can be mocked for testing
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using actual system time
type RealClock struct{}

// Now returns the current system time
func (RealClock) Now() time.Time {
	return time.Now()
}

// FakeClock implements Clock with a fixed, manually advanced time
type FakeClock struct {
	Current time.Time
}

// Now returns the fake current time
func (f *FakeClock) Now() time.Time {
	return f.Current
}

// Advance moves the fake time forward by d
func (f *FakeClock) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}

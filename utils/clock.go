package utils

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	Sleep(d time.Duration)
}

type RealClock struct{}

func (self RealClock) Now() time.Time {
	return time.Now()
}

func (self RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (self RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// MockClock is used by tests to control the passage of time.
type MockClock struct {
	mu      sync.Mutex
	MockNow time.Time
}

func NewMockClock(now time.Time) *MockClock {
	return &MockClock{MockNow: now}
}

func (self *MockClock) Now() time.Time {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.MockNow
}

func (self *MockClock) After(d time.Duration) <-chan time.Time {
	res := make(chan time.Time, 1)
	res <- self.Now()
	return res
}

func (self *MockClock) Sleep(d time.Duration) {
	self.Advance(d)
}

func (self *MockClock) Advance(d time.Duration) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.MockNow = self.MockNow.Add(d)
}

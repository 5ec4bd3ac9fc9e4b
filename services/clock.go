package services

import "time"

// Clock abstracts time for the lock scheduler so tests can drive transitions
// with a simulated clock.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func NewRealClock() Clock { return realClock{} }

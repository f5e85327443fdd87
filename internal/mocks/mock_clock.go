package mocks

import "time"

// StoreClock stands in for the database clock in mocked transitions.
type StoreClock func() time.Time

func FixedClock(t time.Time) StoreClock {
	return func() time.Time { return t }
}

package application

import "time"

// Clock interface supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always answers the same instant. One export run stamps every
// target date from a single reading.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

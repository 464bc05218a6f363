// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clock abstracts wall-clock time and one-shot timers so that
// idle tracking can be driven deterministically in tests.
//
// Production code takes a Clock and uses Real(). Tests use NewFake and
// move time forward with Advance; scheduled callbacks run synchronously
// inside Advance, in deadline order.
package clock

import "time"

// Clock provides the current time and one-shot scheduled callbacks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc arranges for f to run in its own goroutine (or, for a
	// fake clock, synchronously during Advance) once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle on a callback scheduled with AfterFunc.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the
	// call stopped a pending timer.
	Stop() bool
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

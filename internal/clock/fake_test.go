// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

func TestFake_NowStandsStill(t *testing.T) {
	c := NewFake(epoch)
	assert.Equal(t, epoch, c.Now())
	assert.Equal(t, epoch, c.Now())

	c.Advance(90 * time.Second)
	assert.Equal(t, epoch.Add(90*time.Second), c.Now())
}

func TestFake_AfterFuncFiresAtDeadline(t *testing.T) {
	c := NewFake(epoch)

	var firedAt time.Time
	c.AfterFunc(time.Minute, func() { firedAt = c.Now() })

	c.Advance(time.Minute - time.Nanosecond)
	assert.True(t, firedAt.IsZero(), "fired early")
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Nanosecond)
	assert.Equal(t, epoch.Add(time.Minute), firedAt)
	assert.Equal(t, 0, c.Pending())
}

func TestFake_FiresInDeadlineOrder(t *testing.T) {
	c := NewFake(epoch)

	var order []string
	var times []time.Time
	c.AfterFunc(3*time.Second, func() { order = append(order, "c"); times = append(times, c.Now()) })
	c.AfterFunc(1*time.Second, func() { order = append(order, "a"); times = append(times, c.Now()) })
	c.AfterFunc(2*time.Second, func() { order = append(order, "b"); times = append(times, c.Now()) })

	c.Advance(10 * time.Second)

	assert.Equal(t, []string{"a", "b", "c"}, order)
	require.Len(t, times, 3)
	assert.Equal(t, epoch.Add(1*time.Second), times[0])
	assert.Equal(t, epoch.Add(3*time.Second), times[2])
	assert.Equal(t, epoch.Add(10*time.Second), c.Now())
}

func TestFake_StopPreventsFiring(t *testing.T) {
	c := NewFake(epoch)

	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second Stop should report false")

	c.Advance(time.Hour)
	assert.False(t, fired)
}

func TestFake_CallbackStopsLaterTimer(t *testing.T) {
	c := NewFake(epoch)

	laterFired := false
	later := c.AfterFunc(2*time.Second, func() { laterFired = true })
	c.AfterFunc(time.Second, func() { later.Stop() })

	c.Advance(5 * time.Second)
	assert.False(t, laterFired)
}

func TestFake_CallbackSchedulesWithinWindow(t *testing.T) {
	c := NewFake(epoch)

	var second time.Time
	c.AfterFunc(time.Second, func() {
		c.AfterFunc(time.Second, func() { second = c.Now() })
	})

	c.Advance(5 * time.Second)
	assert.Equal(t, epoch.Add(2*time.Second), second)
}

func TestFake_SetBackwardsDoesNotFire(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	c.AfterFunc(time.Second, func() { fired = true })

	c.Set(epoch.Add(-time.Hour))
	assert.False(t, fired)
	assert.Equal(t, epoch.Add(-time.Hour), c.Now())
}

func TestReal_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real().AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real timer did not fire")
	}
}

package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerAfterFires(t *testing.T) {
	t.Parallel()
	sc := newScheduler()
	defer sc.CancelAll()

	done := make(chan struct{})
	sc.After(purposeTurn, "North", 10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}

func TestSchedulerAfterReplacesSameKey(t *testing.T) {
	t.Parallel()
	sc := newScheduler()
	defer sc.CancelAll()

	var fired atomic.Int32
	// The first schedule must be cancelled by the second on the same key
	sc.After(purposeTurn, "North", 20*time.Millisecond, func() { fired.Add(10) })
	sc.After(purposeTurn, "North", 20*time.Millisecond, func() { fired.Add(1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestSchedulerDifferentSeatsIndependent(t *testing.T) {
	t.Parallel()
	sc := newScheduler()
	defer sc.CancelAll()

	var fired atomic.Int32
	sc.After(purposeTurn, "North", 10*time.Millisecond, func() { fired.Add(1) })
	sc.After(purposeTurn, "East", 10*time.Millisecond, func() { fired.Add(1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), fired.Load())
}

func TestSchedulerCancel(t *testing.T) {
	t.Parallel()
	sc := newScheduler()
	defer sc.CancelAll()

	var fired atomic.Int32
	sc.After(purposeTurn, "North", 20*time.Millisecond, func() { fired.Add(1) })
	sc.Cancel(purposeTurn, "North")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestSchedulerCancelSeat(t *testing.T) {
	t.Parallel()
	sc := newScheduler()
	defer sc.CancelAll()

	var fired atomic.Int32
	sc.After(purposeTurn, "North", 20*time.Millisecond, func() { fired.Add(1) })
	sc.Every(purposeCountdown, "North", 20*time.Millisecond, func() { fired.Add(1) })
	sc.After(purposeTurn, "East", 20*time.Millisecond, func() { fired.Add(100) })

	sc.CancelSeat("North")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(100), fired.Load())
}

func TestSchedulerEveryStops(t *testing.T) {
	t.Parallel()
	sc := newScheduler()

	var fired atomic.Int32
	sc.Every(purposeCountdown, "North", 10*time.Millisecond, func() { fired.Add(1) })

	time.Sleep(50 * time.Millisecond)
	sc.Cancel(purposeCountdown, "North")
	time.Sleep(20 * time.Millisecond) // let any in-flight tick land
	after := fired.Load()
	assert.Positive(t, after)

	// No further ticks once cancelled
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, fired.Load())
}

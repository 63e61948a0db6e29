package services

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRecorder counts runs and records their start times.
type runRecorder struct {
	mu         sync.Mutex
	starts     []time.Time
	active     int32
	overlapped int32
	hold       time.Duration
}

func (r *runRecorder) fn() {
	if atomic.AddInt32(&r.active, 1) > 1 {
		atomic.StoreInt32(&r.overlapped, 1)
	}
	r.mu.Lock()
	r.starts = append(r.starts, time.Now())
	hold := r.hold
	r.mu.Unlock()
	time.Sleep(hold)
	atomic.AddInt32(&r.active, -1)
}

func (r *runRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.starts)
}

func (r *runRecorder) start(i int) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts[i]
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	const delay = 60 * time.Millisecond
	rec := &runRecorder{}
	d := NewDebouncer(delay, rec.fn)
	defer d.Stop()

	var last time.Time
	for i := 0; i < 5; i++ {
		last = time.Now()
		d.Tick()
		time.Sleep(10 * time.Millisecond)
	}

	require.True(t, waitFor(time.Second, func() bool { return rec.count() >= 1 }))
	time.Sleep(3 * delay)
	assert.Equal(t, 1, rec.count())
	assert.GreaterOrEqual(t, rec.start(0).Sub(last), delay)
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	const delay = 30 * time.Millisecond
	rec := &runRecorder{}
	d := NewDebouncer(delay, rec.fn)
	defer d.Stop()

	d.Tick()
	require.True(t, waitFor(time.Second, func() bool { return rec.count() == 1 }))
	time.Sleep(2 * delay)
	d.Tick()
	require.True(t, waitFor(time.Second, func() bool { return rec.count() == 2 }))
	time.Sleep(3 * delay)
	assert.Equal(t, 2, rec.count())
}

func TestDebouncer_TicksDuringRun(t *testing.T) {
	const delay = 20 * time.Millisecond
	rec := &runRecorder{hold: 100 * time.Millisecond}
	d := NewDebouncer(delay, rec.fn)
	defer d.Stop()

	d.Tick()
	require.True(t, waitFor(time.Second, d.Running))

	for i := 0; i < 5; i++ {
		d.Tick()
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, d.Pending())

	require.True(t, waitFor(2*time.Second, func() bool { return rec.count() == 2 }))
	require.True(t, waitFor(time.Second, func() bool { return !d.Running() }))
	time.Sleep(3 * delay)

	assert.Equal(t, 2, rec.count())
	assert.Equal(t, int32(0), atomic.LoadInt32(&rec.overlapped))
	assert.False(t, d.Pending())
}

func TestDebouncer_Cancel(t *testing.T) {
	rec := &runRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.fn)
	defer d.Stop()

	d.Tick()
	assert.True(t, d.Pending())
	d.Cancel()
	assert.False(t, d.Pending())

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	d.Tick()
	require.True(t, waitFor(time.Second, func() bool { return rec.count() == 1 }))
}

func TestDebouncer_Stop(t *testing.T) {
	rec := &runRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.fn)

	d.Tick()
	d.Stop()
	d.Tick()
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, 0, rec.count())
	assert.False(t, d.Pending())
}

func TestDebouncer_StopWaitsForRun(t *testing.T) {
	rec := &runRecorder{hold: 60 * time.Millisecond}
	d := NewDebouncer(5*time.Millisecond, rec.fn)

	d.Tick()
	require.True(t, waitFor(time.Second, d.Running))
	d.Stop()

	assert.False(t, d.Running())
	assert.Equal(t, 1, rec.count())
}

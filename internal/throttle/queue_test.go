package throttle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleep records requested delays instead of sleeping.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
	events *[]string
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	if r.events != nil {
		*r.events = append(*r.events, "sleep")
	}
	return ctx.Err()
}

func TestQueue_SequentialDelayBetweenTasks(t *testing.T) {
	var events []string
	rs := &recordingSleep{events: &events}
	q := Sequential(2 * time.Second)
	q.Sleep = rs.sleep

	var mu sync.Mutex
	err := q.Run(context.Background(), 3, func(_ context.Context, i int) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, "start", "end")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, rs.delays)
	assert.Equal(t, []string{"start", "end", "sleep", "start", "end", "sleep", "start", "end"}, events)
}

func TestQueue_SequentialNeverOverlaps(t *testing.T) {
	q := &Queue{Delay: time.Millisecond, Concurrency: 1}
	var running, maxRunning int32
	err := q.Run(context.Background(), 5, func(_ context.Context, _ int) error {
		n := atomic.AddInt32(&running, 1)
		for {
			m := atomic.LoadInt32(&maxRunning)
			if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, maxRunning)
}

func TestQueue_StopHaltsScheduling(t *testing.T) {
	q := Sequential(0)
	var ran []int
	err := q.Run(context.Background(), 10, func(_ context.Context, i int) error {
		ran = append(ran, i)
		if i == 2 {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, ran)
}

func TestQueue_TaskErrorReported(t *testing.T) {
	boom := errors.New("boom")
	q := Sequential(0)
	err := q.Run(context.Background(), 3, func(_ context.Context, i int) error {
		if i == 1 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestQueue_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := Sequential(time.Hour)
	var calls int32
	go func() {
		for atomic.LoadInt32(&calls) == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()
	err := q.Run(ctx, 3, func(_ context.Context, _ int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestQueue_ConcurrencyDegree(t *testing.T) {
	q := &Queue{Concurrency: 3}
	var running, maxRunning int32
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- q.Run(context.Background(), 6, func(_ context.Context, _ int) error {
			n := atomic.AddInt32(&running, 1)
			for {
				m := atomic.LoadInt32(&maxRunning)
				if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&running, -1)
			return nil
		})
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&running) == 3 }, time.Second, time.Millisecond)
	close(release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 3, maxRunning)
}

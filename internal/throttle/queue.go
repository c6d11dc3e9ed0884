// Package throttle runs tasks through a rate-limited queue with a fixed delay
// between task starts and an explicit concurrency degree.
package throttle

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrStop may be returned by a task to stop scheduling the remaining tasks.
// It is not reported as an error by Run.
var ErrStop = errors.New("throttle: stop")

// Queue schedules tasks so that at most Concurrency run at once and a fixed
// Delay separates successive task starts. With Concurrency 1 the delay is
// measured from the end of one task to the start of the next, which is what
// downstream rate limits of remote readers and completion services expect.
type Queue struct {
	Delay       time.Duration
	Concurrency int

	// Sleep is overridable in tests. It must return ctx.Err() when the
	// context ends before d elapses.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Sequential returns a single-worker queue with the given delay.
func Sequential(delay time.Duration) *Queue {
	return &Queue{Delay: delay, Concurrency: 1}
}

// Run executes task(ctx, i) for i in [0, n). A task returning ErrStop stops
// scheduling; tasks already started still finish. Run returns ctx.Err() when
// the context ends before all tasks were scheduled, otherwise the first
// non-ErrStop task error.
func (q *Queue) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	workers := q.Concurrency
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	stop := make(chan struct{})
	var stopOnce sync.Once
	var g errgroup.Group

	var runErr error
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			runErr = ctx.Err()
		}
		if runErr != nil {
			break
		}
		if isClosed(stop) {
			<-sem
			break
		}
		if i > 0 && q.Delay > 0 {
			if err := q.sleep(ctx, q.Delay); err != nil {
				<-sem
				runErr = err
				break
			}
		}
		i := i
		g.Go(func() error {
			defer func() { <-sem }()
			err := task(ctx, i)
			if errors.Is(err, ErrStop) {
				stopOnce.Do(func() { close(stop) })
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (q *Queue) sleep(ctx context.Context, d time.Duration) error {
	if q.Sleep != nil {
		return q.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

package tvtrader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsTasksIndependently(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	scheduler := NewScheduler(&discardLogger{})

	var fastRuns, slowRuns int64

	scheduler.Schedule(
		"fast",
		10*time.Millisecond,
		func(ctx context.Context) error {
			atomic.AddInt64(&fastRuns, 1)
			return nil
		},
	)
	// The slow task blocks for the whole test; it must not delay the
	// fast one.
	scheduler.Schedule(
		"slow",
		10*time.Millisecond,
		func(taskCtx context.Context) error {
			atomic.AddInt64(&slowRuns, 1)
			<-taskCtx.Done()
			return taskCtx.Err()
		},
	)

	scheduler.Start(ctx)

	time.Sleep(200 * time.Millisecond)
	cancelCtx()

	if runs := atomic.LoadInt64(&fastRuns); runs < 2 {
		t.Errorf(
			"fast task must keep running next to a blocked task\n"+
				"expected: at least [2] runs\n"+
				"actual:   [%v]",
			runs,
		)
	}
}

func TestScheduler_SurvivesPanicsAndErrors(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	scheduler := NewScheduler(&discardLogger{})

	var runs int64

	scheduler.Schedule(
		"flaky",
		10*time.Millisecond,
		func(ctx context.Context) error {
			count := atomic.AddInt64(&runs, 1)
			if count == 1 {
				panic("unexpected state")
			}
			return errors.New("transient failure")
		},
	)

	scheduler.Start(ctx)

	time.Sleep(200 * time.Millisecond)
	cancelCtx()

	if atomic.LoadInt64(&runs) < 2 {
		t.Errorf("task must keep running after a panic")
	}
}

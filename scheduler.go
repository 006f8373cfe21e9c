package tvtrader

import (
	"context"
	"time"
)

// Scheduler triggers each registered task on its own ticker in its own
// goroutine, so one slow exchange call can never delay stoploss protection
// of unrelated positions. A task run executes to completion before the next
// tick of the same task fires; panics and errors are absorbed at the task
// boundary and never cancel future runs.
type Scheduler struct {
	logger Logger
	tasks  []*task
}

type task struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

func NewScheduler(logger Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

func (s *Scheduler) Schedule(
	name string,
	interval time.Duration,
	run func(ctx context.Context) error,
) {
	s.tasks = append(s.tasks, &task{
		name:     name,
		interval: interval,
		run:      run,
	})
}

func (s *Scheduler) Start(ctx context.Context) {
	for _, scheduled := range s.tasks {
		s.logger.Infof(
			"scheduling task [%v] at interval [%v]",
			scheduled.name,
			scheduled.interval,
		)

		go s.loop(ctx, scheduled)
	}
}

func (s *Scheduler) loop(ctx context.Context, scheduled *task) {
	ticker := time.NewTicker(scheduled.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runTask(ctx, scheduled)
		case <-ctx.Done():
			s.logger.Infof("terminating task [%v]", scheduled.name)
			return
		}
	}
}

func (s *Scheduler) runTask(ctx context.Context, scheduled *task) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Errorf(
				"task [%v] panicked: [%v]",
				scheduled.name,
				recovered,
			)
		}
	}()

	if err := scheduled.run(ctx); err != nil {
		s.logger.Errorf("task [%v] failed: [%v]", scheduled.name, err)
	}
}

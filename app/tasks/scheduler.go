package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type cycleRunner interface {
	Run(ctx context.Context) error
}

// Scheduler repeats the cycle on a ticker until stopped.
type Scheduler struct {
	runner   cycleRunner
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewScheduler(runner cycleRunner, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:   runner,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runCycle()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runCycle()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) runCycle() {
	started := time.Now()

	if err := s.runner.Run(s.ctx); err != nil {
		if s.ctx.Err() != nil {
			slog.Debug("Scheduler stopped during cycle")
			return
		}
		slog.Error("Cycle failed", "duration", time.Since(started), "error", err)
		return
	}

	slog.Debug("Cycle finished", "duration", time.Since(started))
}

package archiver

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs the archiver once at start and then on a fixed interval.
type Scheduler struct {
	archiver  *Archiver
	days      int
	interval  time.Duration
	onStartup bool
	onRun     func(moved int)

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewScheduler builds a scheduler. An interval of zero disables the ticker.
// onRun, when set, is called after each run that moved records.
func NewScheduler(a *Archiver, days int, interval time.Duration, onStartup bool, onRun func(moved int)) *Scheduler {
	return &Scheduler{
		archiver:  a,
		days:      days,
		interval:  interval,
		onStartup: onStartup,
		onRun:     onRun,
		stop:      make(chan struct{}),
	}
}

// Start begins the background loop.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.onStartup && s.interval <= 0 {
		s.archiver.log.Info("archive scheduler disabled")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.archiver.log.Info("archive scheduler started", "days", s.days, "interval", s.interval.String())

		if s.onStartup {
			s.run(ctx)
		}
		if s.interval <= 0 {
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.run(ctx)
			case <-ctx.Done():
				return
			case <-s.stop:
				s.archiver.log.Info("archive scheduler stopped")
				return
			}
		}
	}()
}

// Stop halts the loop and waits for a run in progress.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	moved, err := s.archiver.ArchiveOlderThan(ctx, s.days)
	if err != nil {
		return
	}
	if moved > 0 && s.onRun != nil {
		s.onRun(moved)
	}
}

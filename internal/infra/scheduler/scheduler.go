package scheduler

import (
	"context"
	"time"

	"conversation-agent/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Pruner is the minimal interface the scheduler needs from the session registry.
type Pruner interface {
	// PruneIdle forgets users silent for longer than maxIdle and returns how many.
	PruneIdle(maxIdle time.Duration) int
}

// Scheduler periodically sweeps idle user transcripts.
type Scheduler struct {
	interval time.Duration
	maxIdle  time.Duration
	pruner   Pruner
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler runs pruner.PruneIdle(maxIdle) every interval.
// If interval <= 0 it defaults to 1 minute.
func NewScheduler(interval, maxIdle time.Duration, pruner Pruner, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		interval: interval,
		maxIdle:  maxIdle,
		pruner:   pruner,
		log:      &l,
		done:     make(chan struct{}),
	}
}

// Start begins the loop in a background goroutine; calling it twice has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Dur("max_idle", s.maxIdle).Msg("started")
	for {
		select {
		case <-s.ctx.Done():
			s.log.Debug().Msg("context cancelled; stopping")
			return
		case <-ticker.C:
			if n := s.pruner.PruneIdle(s.maxIdle); n > 0 {
				s.log.Info().Int("users", n).Msg("pruned idle transcripts")
			}
		}
	}
}

// Stop cancels the loop and waits for it to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	s.log.Info().Msg("stopped")
}

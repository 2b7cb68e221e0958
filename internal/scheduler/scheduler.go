package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	engage "github.com/classpulse-team/classpulse/internal/usecase/engagement"
)

// MeetingLister enumerates the meetings worth evaluating.
type MeetingLister interface {
	Active() []string
}

// Scheduler drives periodic policy ticks over every active meeting. A
// meeting whose previous tick is still running is skipped, not queued.
type Scheduler struct {
	policy   *engage.Policy
	meetings MeetingLister
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New creates a scheduler. interval must be positive.
func New(policy *engage.Policy, meetings MeetingLister, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		policy:   policy,
		meetings: meetings,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop in a background goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

// Stop halts the loop and waits for in-flight ticks to finish.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		<-s.done
	})
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickAll(ctx)
		}
	}
}

// tickAll evaluates every active meeting concurrently and waits for the
// batch before the next interval fires.
func (s *Scheduler) tickAll(ctx context.Context) {
	ids := s.meetings.Active()
	if len(ids) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(meetingID string) {
			defer wg.Done()
			result, err := s.policy.RunTick(ctx, meetingID)
			if err != nil {
				s.logger.Warn("scheduler.tick_failed",
					zap.String("meeting_id", meetingID),
					zap.Error(err),
				)
				return
			}
			if result.Skipped {
				return
			}
			s.logger.Info("scheduler.tick_done",
				zap.String("meeting_id", meetingID),
				zap.Int("class_engagement", result.Summary.ClassEngagement),
				zap.Int("nudges_sent", result.NudgesSent),
			)
		}(id)
	}
	wg.Wait()
}

package taskservice

import (
	"log/slog"
	"math/rand/v2"
	"time"
)

// Settings are the task options surfaced to clients.
type Settings struct {
	DefaultPriority      *int `json:"default_priority"`
	MarkChildrenComplete bool `json:"mark_children_complete"`
	HistoryDays          int  `json:"history_days"`
}

// Publisher receives task mutations for live clients.
type Publisher interface {
	PublishTaskToggled(path string, line int, completed bool)
}

type nopPublisher struct{}

func (nopPublisher) PublishTaskToggled(string, int, bool) {}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the publisher notified after each applied toggle.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.pub = p
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the wall clock used for %done stamps and history.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRand sets the random source used by RollTask.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		s.rng = rng
	}
}

// WithSettings sets the task settings.
func WithSettings(cfg Settings) Option {
	return func(s *Service) {
		s.settings = cfg
	}
}

// WithSettleOnWrite releases the toggle latch as soon as a toggle has been
// written, for processes that run without a filesystem watcher.
func WithSettleOnWrite() Option {
	return func(s *Service) {
		s.settleOnWrite = true
	}
}

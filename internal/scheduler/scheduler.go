// Package scheduler periodically rebuilds the current day's report and
// notifies when new chart updates appear.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scoradar/scoradar/internal/notify"
	"github.com/scoradar/scoradar/pkg/report"
)

// Builder produces the report for one day window.
type Builder interface {
	BuildDay(ctx context.Context, start, end time.Time) (*report.Report, error)
}

// Scheduler runs the periodic report refresh loop.
type Scheduler struct {
	builder  Builder
	notifier *notify.Manager
	loc      *time.Location
	interval time.Duration
	logger   *zap.Logger

	day  string
	seen map[string]bool
}

// New creates a new scheduler.
func New(builder Builder, notifier *notify.Manager, loc *time.Location, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		builder:  builder,
		notifier: notifier,
		loc:      loc,
		interval: interval,
		logger:   logger,
		seen:     make(map[string]bool),
	}
}

// Run starts the refresh loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("watch started", zap.Duration("interval", s.interval))
	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("watch stopped")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	now := time.Now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)
	day := start.Format("2006-01-02")

	// Day rollover resets the seen set.
	if day != s.day {
		s.day = day
		s.seen = make(map[string]bool)
	}

	rep, err := s.builder.BuildDay(ctx, start, end)
	if err != nil {
		s.logger.Warn("report build failed", zap.String("day", day), zap.Error(err))
		return
	}

	var fresh []report.Song
	for _, song := range rep.Songs {
		if !s.seen[song.SHA256] {
			s.seen[song.SHA256] = true
			fresh = append(fresh, song)
		}
	}

	s.logger.Info("report refreshed",
		zap.String("day", day),
		zap.Int("displayed", rep.Stats.DisplayedSongs),
		zap.Int("new", len(fresh)))

	if len(fresh) == 0 || s.notifier == nil || !s.notifier.HasNotifiers() {
		return
	}

	n := &notify.Notification{
		Title: fmt.Sprintf("%d chart update(s) on %s", len(fresh), day),
		Body:  fmt.Sprintf("%d songs updated today, %d notes judged", rep.Stats.DisplayedSongs, rep.Stats.TotalNotes),
		Date:  day,
		Songs: fresh,
		Stats: rep.Stats,
	}
	if err := s.notifier.Broadcast(ctx, n); err != nil {
		s.logger.Warn("notify failed", zap.Error(err))
	}
}

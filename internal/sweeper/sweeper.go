package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Target is something holding expirable entries
type Target interface {
	Sweep(ctx context.Context) (int, error)
}

// Sweeper handles periodic removal of expired entries
type Sweeper struct {
	name     string
	target   Target
	interval time.Duration
}

// New creates a new sweep worker
func New(name string, target Target, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Sweeper{
		name:     name,
		target:   target,
		interval: interval,
	}
}

// Start begins the sweep worker in a goroutine
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

// run is the main loop for the sweep worker
func (s *Sweeper) run(ctx context.Context) {
	slog.Info("sweeper started", "name", s.name, "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped", "name", s.name)
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one cycle and returns how many entries were removed
func (s *Sweeper) sweep(ctx context.Context) int {
	removed, err := s.target.Sweep(ctx)
	if err != nil {
		slog.Error("sweep failed", "name", s.name, "error", err)
		return 0
	}

	if removed == 0 {
		slog.Debug("nothing to sweep", "name", s.name)
		return 0
	}

	slog.Info("expired entries removed", "name", s.name, "count", removed)
	return removed
}

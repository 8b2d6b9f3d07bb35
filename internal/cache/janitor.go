package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically cleans a set of caches until its context ends.
type Janitor struct {
	interval time.Duration
	caches   []Cleaner
	logger   *slog.Logger
}

// NewJanitor returns a janitor sweeping caches every interval.
func NewJanitor(interval time.Duration, logger *slog.Logger, caches ...Cleaner) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{interval: interval, caches: caches, logger: logger}
}

// Sweep cleans every cache once and returns the number of dropped entries.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps on every tick and returns when ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.Debug("Expired cache entries removed", "count", n)
			}
		}
	}
}

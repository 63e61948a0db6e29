package services

import (
	"context"
	"os"
	"time"
)

// StabilityGate decides whether a file is still being written by sampling its
// size at fixed intervals. It keeps no state between calls.
type StabilityGate struct {
	checks   int
	interval time.Duration
	stat     func(string) (os.FileInfo, error)
}

// NewStabilityGate creates a gate taking checks samples, interval apart.
func NewStabilityGate(checks int, interval time.Duration) *StabilityGate {
	if checks < 1 {
		checks = 1
	}
	return &StabilityGate{
		checks:   checks,
		interval: interval,
		stat:     os.Stat,
	}
}

// IsStable reports whether path is a regular file whose size did not change
// across all samples. Unreadable paths and cancellation yield false.
func (g *StabilityGate) IsStable(ctx context.Context, path string) bool {
	last := int64(-1)
	for i := 0; i < g.checks; i++ {
		if i > 0 {
			if !sleepCtx(ctx, g.interval) {
				return false
			}
		}
		info, err := g.stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
		if i > 0 && info.Size() != last {
			return false
		}
		last = info.Size()
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

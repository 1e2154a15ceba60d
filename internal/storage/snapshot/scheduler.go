package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/tokvault-go/internal/core/domain"
)

// Source returns a consistent copy of the vault and the backend name.
type Source func() (*domain.Vault, string)

// RunObserver records snapshot outcomes. metric.SnapshotMetrics satisfies it.
type RunObserver interface {
	ObserveRun(entries int, at time.Time, err error)
}

// Scheduler takes a snapshot every interval and prunes old ones.
//
// The vault only grows, so a run that finds the same entry count as the
// previous snapshot writes nothing.
type Scheduler struct {
	mgr      *Manager
	source   Source
	interval time.Duration
	observer RunObserver
	logger   *slog.Logger

	// mu serializes runs from the ticker and from Stop.
	mu          sync.Mutex
	lastEntries int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler. observer and logger may be nil.
func NewScheduler(mgr *Manager, source Source, interval time.Duration, observer RunObserver, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		mgr:         mgr,
		source:      source,
		interval:    interval,
		observer:    observer,
		logger:      logger,
		lastEntries: -1,
	}
}

// Start runs the schedule in the background until Stop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = s.RunOnce()
			}
		}
	}()
}

// Stop ends the schedule and takes a final snapshot.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	_, err := s.RunOnce()
	return err
}

// RunOnce writes one snapshot and applies retention. It returns nil, nil
// when the vault has not changed since the last snapshot.
func (s *Scheduler) RunOnce() (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, backend := s.source()
	if v.Len() == s.lastEntries {
		s.logger.Debug("vault unchanged, snapshot skipped", "entries", s.lastEntries)
		return nil, nil
	}

	info, err := s.mgr.Create(v, backend)
	if s.observer != nil {
		s.observer.ObserveRun(v.Len(), time.Now(), err)
	}
	if err != nil {
		s.logger.Error("snapshot failed", "dir", s.mgr.Dir(), "error", err)
		return nil, err
	}
	s.lastEntries = info.Entries

	s.logger.Info("snapshot written",
		"id", info.ID,
		"entries", info.Entries,
		"bytes", info.Size)

	removed, err := s.mgr.Prune()
	if err != nil {
		s.logger.Warn("snapshot prune failed", "dir", s.mgr.Dir(), "error", err)
	} else if removed > 0 {
		s.logger.Debug("old snapshots removed", "count", removed)
	}
	return info, nil
}

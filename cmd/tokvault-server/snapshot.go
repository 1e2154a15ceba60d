package main

import (
	"log/slog"

	"github.com/yndnr/tokvault-go/internal/core/service"
	"github.com/yndnr/tokvault-go/internal/server/config"
	"github.com/yndnr/tokvault-go/internal/storage/snapshot"
	"github.com/yndnr/tokvault-go/internal/telemetry/metric"
)

// initSnapshots builds the snapshot scheduler, or returns nil when
// snapshots are not configured. Payloads use the same codec as blob
// backends, so an encryption key seals them too.
func initSnapshots(cfg *config.ServerConfig, tokenizer *service.Tokenizer, reg *metric.Registry, log *slog.Logger) (*snapshot.Scheduler, error) {
	sc := cfg.Storage.Snapshot
	if !sc.Enabled() {
		return nil, nil
	}

	blobCodec, err := newCodec(&cfg.Security)
	if err != nil {
		return nil, err
	}
	mgr, err := snapshot.NewManager(snapshot.Config{
		Dir:            sc.Dir,
		RetentionCount: sc.RetentionCount,
		RetentionDays:  sc.RetentionDays,
		Codec:          blobCodec,
	})
	if err != nil {
		return nil, err
	}

	log.Info("vault snapshots enabled",
		"dir", sc.Dir,
		"interval", sc.Interval,
		"sealed", blobCodec.Sealed())
	return snapshot.NewScheduler(mgr, tokenizer.Snapshot, sc.Interval, reg.Snapshot, log.With("component", "snapshot")), nil
}

package storage

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestBadger(t *testing.T, dir string) *BadgerEngine {
	t.Helper()

	cfg := DefaultKVConfig(dir)
	cfg.Badger.GCInterval = "1h" // keep auto GC out of the way

	engine, err := NewBadgerEngine(cfg, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestBadgerEngine_BasicOperations(t *testing.T) {
	engine := newTestBadger(t, t.TempDir())
	defer engine.Close()

	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		key := []byte("test-key")
		value := []byte("test-value")

		if err := engine.Set(ctx, key, value); err != nil {
			t.Fatal(err)
		}
		if err := engine.Sync(ctx); err != nil {
			t.Fatal(err)
		}

		got, err := engine.Get(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != string(value) {
			t.Errorf("expected %s, got %s", value, got)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		_, err := engine.Get(ctx, []byte("non-existent"))
		if err != ErrKeyNotFound {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := []byte("vault")
		if err := engine.Set(ctx, key, []byte("v1")); err != nil {
			t.Fatal(err)
		}
		if err := engine.Set(ctx, key, []byte("v2")); err != nil {
			t.Fatal(err)
		}

		got, err := engine.Get(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "v2" {
			t.Errorf("expected v2, got %s", got)
		}
	})
}

func TestBadgerEngine_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	engine := newTestBadger(t, dir)
	if err := engine.Set(ctx, []byte("vault"), []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := engine.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	if err := engine.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := newTestBadger(t, dir)
	defer reopened.Close()

	got, err := reopened.Get(ctx, []byte("vault"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "persisted" {
		t.Errorf("expected persisted, got %s", got)
	}
}

func TestBadgerEngine_Backup(t *testing.T) {
	engine := newTestBadger(t, t.TempDir())
	defer engine.Close()

	ctx := context.Background()
	if err := engine.Set(ctx, []byte("vault"), []byte("data")); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := engine.Backup(ctx, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("backup is empty")
	}
}

func TestBadgerEngine_GCAndStats(t *testing.T) {
	engine := newTestBadger(t, t.TempDir())
	defer engine.Close()

	ctx := context.Background()
	if _, err := engine.GC(ctx); err != nil {
		t.Fatal(err)
	}

	stats, err := engine.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.LastGCTime == 0 {
		t.Error("LastGCTime not recorded")
	}
	if stats.TotalSize != stats.LSMSize+stats.ValueLogSize {
		t.Errorf("TotalSize = %d, want %d", stats.TotalSize, stats.LSMSize+stats.ValueLogSize)
	}
}

func TestBadgerEngine_Closed(t *testing.T) {
	engine := newTestBadger(t, t.TempDir())
	if err := engine.Close(); err != nil {
		t.Fatal(err)
	}
	// Second close is a no-op.
	if err := engine.Close(); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := engine.Set(ctx, []byte("k"), []byte("v")); err != ErrClosed {
		t.Errorf("Set after close: expected ErrClosed, got %v", err)
	}
	if _, err := engine.Get(ctx, []byte("k")); err != ErrClosed {
		t.Errorf("Get after close: expected ErrClosed, got %v", err)
	}
}

func TestBadgerEngine_RegisterMetrics(t *testing.T) {
	engine := newTestBadger(t, t.TempDir())
	defer engine.Close()

	registry := prometheus.NewRegistry()
	engine.RegisterMetrics(registry)

	families, err := registry.Gather()
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{
		"tokvault_badger_lsm_size_bytes":            false,
		"tokvault_badger_value_log_size_bytes":      false,
		"tokvault_badger_total_size_bytes":          false,
		"tokvault_badger_last_gc_timestamp_seconds": false,
		"tokvault_badger_gc_runs_total":             false,
	}
	for _, mf := range families {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("metric %s not registered", name)
		}
	}
}

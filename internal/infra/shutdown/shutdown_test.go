package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"syscall"
	"testing"
	"time"
)

func newTestHandler(timeout time.Duration) *Handler {
	return NewHandler(timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func waitAsync(h *Handler, ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()
	return errCh
}

func receive(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
		return nil
	}
}

func TestHandler_TriggerRunsHooksInReverse(t *testing.T) {
	h := newTestHandler(5 * time.Second)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"storage", "vault", "http"} {
		h.OnShutdown(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	errCh := waitAsync(h, context.Background())
	h.Trigger()
	h.Trigger()

	if err := receive(t, errCh); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"http", "vault", "storage"}
	if len(order) != len(want) {
		t.Fatalf("hooks called = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("hooks called = %v, want %v", order, want)
		}
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_ContextCancel(t *testing.T) {
	h := newTestHandler(5 * time.Second)

	called := false
	h.OnShutdown("only", func(context.Context) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := waitAsync(h, ctx)
	cancel()

	if err := receive(t, errCh); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !called {
		t.Error("hook was not called")
	}
}

func TestHandler_Signal(t *testing.T) {
	h := newTestHandler(5 * time.Second)
	errCh := waitAsync(h, context.Background())

	// Give Wait time to install the signal handler.
	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	if err := receive(t, errCh); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestHandler_HookErrorsJoined(t *testing.T) {
	h := newTestHandler(5 * time.Second)

	errA := errors.New("close a")
	errB := errors.New("close b")
	laterRan := false

	h.OnShutdown("later", func(context.Context) error {
		laterRan = true
		return nil
	})
	h.OnShutdown("a", func(context.Context) error { return errA })
	h.OnShutdown("b", func(context.Context) error { return errB })

	errCh := waitAsync(h, context.Background())
	h.Trigger()

	err := receive(t, errCh)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Wait() error = %v, want both hook errors", err)
	}
	if !laterRan {
		t.Error("a failing hook must not stop later hooks")
	}
}

func TestHandler_Timeout(t *testing.T) {
	h := newTestHandler(20 * time.Millisecond)

	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	errCh := waitAsync(h, context.Background())
	h.Trigger()

	if err := receive(t, errCh); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := newTestHandler(5 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("noop", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != 10 {
		t.Errorf("expected 10 hooks, got %d", len(h.hooks))
	}
}

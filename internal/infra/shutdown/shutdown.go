package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook releases one resource. It should return promptly once ctx is done.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	hooks []namedHook

	trigger     chan struct{}
	triggerOnce sync.Once
	done        chan struct{}
}

// NewHandler creates a shutdown handler whose hooks share timeout.
func NewHandler(timeout time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		timeout: timeout,
		logger:  logger,
		trigger: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(name string, hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, namedHook{name: name, fn: hook})
}

// Trigger starts shutdown without a signal, e.g. after a fatal serve error.
// Extra calls are no-ops.
func (h *Handler) Trigger() {
	h.triggerOnce.Do(func() { close(h.trigger) })
}

// Wait blocks until SIGINT, SIGTERM, Trigger or ctx cancellation, then runs
// every hook. It returns the joined hook errors.
func (h *Handler) Wait(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		h.logger.Info("shutdown signal received", "cause", context.Cause(sigCtx))
	case <-h.trigger:
		h.logger.Info("shutdown triggered")
	}

	return h.run()
}

func (h *Handler) run() error {
	defer close(h.done)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]namedHook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		start := time.Now()
		if err := hook.fn(ctx); err != nil {
			h.logger.Error("shutdown hook failed", "hook", hook.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", hook.name, err))
			continue
		}
		h.logger.Debug("shutdown hook done", "hook", hook.name, "duration", time.Since(start))
	}

	if ctx.Err() != nil {
		errs = append(errs, fmt.Errorf("shutdown exceeded %s: %w", h.timeout, ctx.Err()))
	}
	return errors.Join(errs...)
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT, SIGTERM, an explicit Trigger or context
// cancellation, then runs the registered hooks in reverse order of
// registration under a shared timeout:
//
//	h := shutdown.NewHandler(15*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	h.OnShutdown("storage", func(context.Context) error { return backend.Close() })
//	err := h.Wait(ctx)
package shutdown

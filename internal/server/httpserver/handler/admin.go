package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/internal/infra/buildinfo"
)

// handleAdminStatus handles GET /admin/v1/status.
func (h *Handler) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	stats := h.tokenizer.Stats()
	uptime := time.Since(h.started)
	info := buildinfo.Get()

	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Status:           "running",
		Version:          info.Version,
		Commit:           info.Commit,
		Backend:          stats.Backend,
		Entries:          stats.Entries,
		DetokenizePolicy: string(h.tokenizer.Policy()),
		Uptime:           uptime.Truncate(time.Second).String(),
		UptimeSeconds:    int64(uptime.Seconds()),
	})
}

// handleBackup handles GET /admin/v1/backup by streaming a backend backup.
func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	if h.backupper == nil {
		h.writeError(w, r, http.StatusNotImplemented, domain.ErrNotImplemented.Code, "backend does not support backups", nil)
		return
	}

	// Backups may outlive the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	name := fmt.Sprintf("tokvault-%s.bak", time.Now().UTC().Format("20060102T150405Z"))
	bw := &backupWriter{w: w, filename: name}
	err := h.backupper.Backup(r.Context(), bw)
	if err == nil {
		if !bw.started {
			bw.start()
		}
		h.logger.Info("backup streamed", "request_id", getRequestID(r), "bytes", bw.n)
		return
	}

	if bw.started {
		// Headers are gone; the client sees a truncated stream.
		h.logger.Error("backup interrupted", "request_id", getRequestID(r), "bytes", bw.n, "error", err)
		return
	}
	if errors.Is(err, domain.ErrNotImplemented) {
		h.writeError(w, r, http.StatusNotImplemented, domain.ErrNotImplemented.Code, "backend does not support backups", nil)
		return
	}
	h.handleServiceError(w, r, err)
}

// backupWriter defers the response headers until the first byte so that a
// backup failing up front can still be answered with an error envelope.
type backupWriter struct {
	w        http.ResponseWriter
	filename string
	started  bool
	n        int64
}

func (b *backupWriter) start() {
	b.started = true
	b.w.Header().Set("Content-Type", "application/octet-stream")
	b.w.Header().Set("Content-Disposition", `attachment; filename="`+b.filename+`"`)
	b.w.WriteHeader(http.StatusOK)
}

func (b *backupWriter) Write(p []byte) (int, error) {
	if !b.started {
		b.start()
	}
	n, err := b.w.Write(p)
	b.n += int64(n)
	return n, err
}

package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ExpiryWarning is how close to NotAfter a loaded certificate triggers a
// warning.
const ExpiryWarning = 30 * 24 * time.Hour

// CertWatcher serves a certificate/key pair and reloads it when either
// file changes, so certificates can be rotated without a restart.
type CertWatcher struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
	debounce time.Duration

	mu   sync.RWMutex
	cert *tls.Certificate

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a CertWatcher.
type WatcherOption func(*CertWatcher)

// WithLogger sets the logger for the watcher.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *CertWatcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets the quiet period after the last file event before the
// pair is reloaded.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *CertWatcher) {
		w.debounce = d
	}
}

// NewCertWatcher loads the pair and starts watching both files' directories.
// Events are not processed until Start or StartAsync.
func NewCertWatcher(certFile, keyFile string, opts ...WatcherOption) (*CertWatcher, error) {
	w := &CertWatcher{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	for _, dir := range uniqueDirs(certFile, keyFile) {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}
	w.fsw = fsw
	return w, nil
}

func uniqueDirs(files ...string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, f := range files {
		d := filepath.Dir(f)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Start processes file events until Stop is called.
func (w *CertWatcher) Start() {
	w.logger.Info("certificate watcher started", "cert_file", w.certFile)

	certBase := filepath.Base(w.certFile)
	keyBase := filepath.Base(w.keyFile)

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			base := filepath.Base(event.Name)
			if base != certBase && base != keyBase {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if err := w.reload(); err != nil {
				w.logger.Error("certificate reload failed, keeping previous certificate",
					"cert_file", w.certFile,
					"error", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("certificate watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// StartAsync starts watching in a goroutine.
func (w *CertWatcher) StartAsync() {
	go w.Start()
}

// Stop stops watching. It is safe to call more than once.
func (w *CertWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

// GetCertificate returns the current certificate.
// It implements tls.Config.GetCertificate.
func (w *CertWatcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert, nil
}

// NotAfter returns the expiry of the current leaf certificate.
func (w *CertWatcher) NotAfter() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.cert == nil || w.cert.Leaf == nil {
		return time.Time{}
	}
	return w.cert.Leaf.NotAfter
}

func (w *CertWatcher) reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	if cert.Leaf == nil && len(cert.Certificate) > 0 {
		if leaf, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
			cert.Leaf = leaf
		}
	}

	w.mu.Lock()
	w.cert = &cert
	w.mu.Unlock()

	attrs := []any{"cert_file", w.certFile}
	if cert.Leaf != nil {
		attrs = append(attrs, "not_after", cert.Leaf.NotAfter)
		if time.Until(cert.Leaf.NotAfter) < ExpiryWarning {
			w.logger.Warn("certificate expires soon", attrs...)
		}
	}
	w.logger.Info("certificate loaded", attrs...)
	return nil
}

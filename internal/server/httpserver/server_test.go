package httpserver

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0", ReadTimeout: time.Second}, okHandler)
	if s.TLSEnabled() {
		t.Fatal("TLS should be disabled without cert files")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve returned %v, want nil after Shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for Serve to return")
	}
}

func TestServer_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	s := New(Config{Addr: ln.Addr().String()}, okHandler)
	if err := s.ListenAndServe(); err == nil {
		t.Error("ListenAndServe on a busy port should fail")
	}
}

func TestServer_TLSEnabled(t *testing.T) {
	s := New(Config{Addr: ":0", TLSCertFile: "cert.pem", TLSKeyFile: "key.pem"}, okHandler)
	if !s.TLSEnabled() {
		t.Error("TLS should be enabled with both files set")
	}
}

func TestServer_TLSConfigEnables(t *testing.T) {
	s := New(Config{Addr: ":0", TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12}}, okHandler)
	if !s.TLSEnabled() {
		t.Error("TLS should be enabled with a TLSConfig")
	}
}

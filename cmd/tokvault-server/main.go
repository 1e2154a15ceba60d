package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yndnr/tokvault-go/internal/core/service"
	"github.com/yndnr/tokvault-go/internal/infra/buildinfo"
	"github.com/yndnr/tokvault-go/internal/infra/confloader"
	"github.com/yndnr/tokvault-go/internal/infra/shutdown"
	"github.com/yndnr/tokvault-go/internal/server/config"
	"github.com/yndnr/tokvault-go/internal/server/httpserver"
	"github.com/yndnr/tokvault-go/internal/server/httpserver/handler"
	"github.com/yndnr/tokvault-go/internal/server/redisserver"
	"github.com/yndnr/tokvault-go/internal/storage"
	"github.com/yndnr/tokvault-go/internal/telemetry/logger"
	"github.com/yndnr/tokvault-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("tokvault-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting tokvault-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile,
		"backend", cfg.Storage.Backend)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx := context.Background()
	reg := metric.NewRegistry()

	backend, err := initStorage(ctx, cfg, reg, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	vaultStore, err := service.LoadVaultStore(ctx, backend, &service.VaultConfig{Observer: reg.Vault})
	if err != nil {
		backend.Close()
		return fmt.Errorf("load vault: %w", err)
	}

	policy, err := service.ParseDetokenizePolicy(cfg.Vault.DetokenizePolicy)
	if err != nil {
		backend.Close()
		return err
	}
	tokenizer := service.NewTokenizer(service.NewGuard(vaultStore), policy)

	var backupper storage.Backupper
	if b, ok := backend.(storage.Backupper); ok {
		backupper = b
	}
	h := handler.New(tokenizer, backupper, log)

	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Handler = h
	routerCfg.Metrics = reg
	routerCfg.Logger = log
	routerCfg.APIKey = cfg.Server.HTTP.APIKey
	routerCfg.MaxBodyBytes = cfg.Server.HTTP.MaxBodyBytes
	routerCfg.RateLimit = httpserver.RateLimitConfig{
		RPS:               cfg.Server.HTTP.RateLimit.RPS,
		Burst:             cfg.Server.HTTP.RateLimit.Burst,
		TrustProxyHeaders: cfg.Server.HTTP.TrustProxyHeaders,
	}

	// Hooks run in reverse order of registration.
	sd := shutdown.NewHandler(cfg.Server.ShutdownTimeout, log)
	sd.OnShutdown("storage", func(context.Context) error {
		return backend.Close()
	})
	// abort unwinds what has been registered so far.
	abort := func(err error) error {
		sd.Trigger()
		_ = sd.Wait(ctx)
		return err
	}

	snapshots, err := initSnapshots(cfg, tokenizer, reg, log)
	if err != nil {
		return abort(fmt.Errorf("init snapshots: %w", err))
	}
	if snapshots != nil {
		snapshots.Start()
		sd.OnShutdown("snapshots", snapshots.Stop)
	}

	hc := cfg.Server.HTTP
	httpTLS, httpCerts, err := serverTLS(hc.TLSCertFile, hc.TLSKeyFile, hc.ClientCAFile, log.With("listener", "http"))
	if err != nil {
		return abort(fmt.Errorf("http tls: %w", err))
	}
	if httpCerts != nil {
		httpCerts.StartAsync()
		sd.OnShutdown("http-certs", func(context.Context) error {
			return httpCerts.Stop()
		})
	}

	srv := httpserver.New(httpserver.Config{
		Addr:         hc.Addr,
		TLSConfig:    httpTLS,
		ReadTimeout:  hc.ReadTimeout,
		WriteTimeout: hc.WriteTimeout,
	}, httpserver.NewRouter(routerCfg))

	if hc.APIKey == "" {
		log.Warn("no API key configured; vault routes are unauthenticated")
	}

	var respSrv *redisserver.Server
	if rc := cfg.Server.RESP; rc.Enabled {
		respTLS, respCerts, err := serverTLS(rc.TLSCertFile, rc.TLSKeyFile, rc.ClientCAFile, log.With("listener", "resp"))
		if err != nil {
			return abort(fmt.Errorf("resp tls: %w", err))
		}
		if respCerts != nil {
			respCerts.StartAsync()
			sd.OnShutdown("resp-certs", func(context.Context) error {
				return respCerts.Stop()
			})
		}

		respSrv = redisserver.New(redisserver.Config{
			Addr:              rc.Addr,
			TLSConfig:         respTLS,
			APIKey:            hc.APIKey,
			ReadTimeout:       hc.ReadTimeout,
			WriteTimeout:      hc.WriteTimeout,
			IdleTimeout:       rc.IdleTimeout,
			CommandsPerSecond: rc.CommandsPerSecond,
			MaxConns:          rc.MaxConns,
		}, tokenizer, reg.RESP, log.With("listener", "resp"))
	}

	if *configFile != "" {
		watcher, err := watchLogLevel(*configFile, log)
		if err != nil {
			log.Warn("configuration watcher disabled", "error", err)
		} else {
			sd.OnShutdown("config-watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	if respSrv != nil {
		sd.OnShutdown("resp", respSrv.Shutdown)
	}
	sd.OnShutdown("http", srv.Shutdown)
	sd.OnShutdown("readiness", func(context.Context) error {
		h.SetReady(false)
		return nil
	})

	h.SetReady(true)
	if respSrv != nil {
		go func() {
			if err := respSrv.ListenAndServe(); err != nil {
				log.Error("RESP server error", "error", err)
				sd.Trigger()
			}
		}()
	}
	go func() {
		log.Info("HTTP server listening",
			"addr", hc.Addr,
			"tls", srv.TLSEnabled(),
			"entries", tokenizer.Stats().Entries)
		if err := srv.ListenAndServe(); err != nil {
			log.Error("HTTP server error", "error", err)
			sd.Trigger()
		}
	}()

	if err := sd.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// initLogger installs the redacting logger as the process default.
func initLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	l, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(l)
	return logger.Slog(l), nil
}

// watchLogLevel re-reads path on change and applies log.level. Other
// settings need a restart.
func watchLogLevel(path string, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		next, err := config.Load(path)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "path", path, "error", err)
			return
		}
		if next.Log.Level != logger.GetLevel() {
			logger.SetLevel(next.Log.Level)
			log.Info("log level changed", "level", next.Log.Level)
		}
	})
	w.StartAsync()
	return w, nil
}

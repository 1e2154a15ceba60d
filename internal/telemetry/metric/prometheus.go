package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tokvault"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	Vault    *VaultMetrics
	HTTP     *HTTPMetrics
	RESP     *RESPMetrics
	Snapshot *SnapshotMetrics
}

// VaultMetrics counts vault events.
type VaultMetrics struct {
	TokensMinted    prometheus.Counter
	MintCollisions  prometheus.Counter
	PersistFailures prometheus.Counter
	ExhaustedWords  prometheus.Counter
	UnknownTokens   prometheus.Counter
	Entries         prometheus.Gauge
}

// HTTPMetrics records request counts and latencies.
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// RESPMetrics records RESP front end activity.
type RESPMetrics struct {
	CommandsTotal     *prometheus.CounterVec
	ActiveConnections prometheus.Gauge
}

// SnapshotMetrics records periodic snapshot runs.
type SnapshotMetrics struct {
	RunsTotal   *prometheus.CounterVec
	LastSuccess prometheus.Gauge
	LastEntries prometheus.Gauge
}

// NewRegistry creates a registry with every TokVault metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		reg:      reg,
		Vault:    newVaultMetrics(),
		HTTP:     newHTTPMetrics(),
		RESP:     newRESPMetrics(),
		Snapshot: newSnapshotMetrics(),
	}

	reg.MustRegister(
		r.Vault.TokensMinted,
		r.Vault.MintCollisions,
		r.Vault.PersistFailures,
		r.Vault.ExhaustedWords,
		r.Vault.UnknownTokens,
		r.Vault.Entries,
		r.HTTP.RequestsTotal,
		r.HTTP.RequestDuration,
		r.RESP.CommandsTotal,
		r.RESP.ActiveConnections,
		r.Snapshot.RunsTotal,
		r.Snapshot.LastSuccess,
		r.Snapshot.LastEntries,
	)
	return r
}

func newVaultMetrics() *VaultMetrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      name,
			Help:      help,
		})
	}

	return &VaultMetrics{
		TokensMinted:    counter("tokens_minted_total", "Tokens minted and persisted for new words"),
		MintCollisions:  counter("mint_collisions_total", "Minted candidates rejected because the token was already assigned"),
		PersistFailures: counter("persist_failures_total", "Assignments rejected because the backend write failed"),
		ExhaustedWords:  counter("token_space_exhausted_total", "Words for which every mint attempt collided"),
		UnknownTokens:   counter("unknown_tokens_total", "Tokens seen by detokenize that map to no word"),
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "entries",
			Help:      "Word/token assignments held by the vault",
		}),
	}
}

func newHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func newRESPMetrics() *RESPMetrics {
	return &RESPMetrics{
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resp",
			Name:      "commands_total",
			Help:      "RESP commands by command name and outcome",
		}, []string{"command", "status"}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resp",
			Name:      "active_connections",
			Help:      "Open RESP client connections",
		}),
	}
}

func newSnapshotMetrics() *SnapshotMetrics {
	return &SnapshotMetrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "runs_total",
			Help:      "Snapshot runs by outcome",
		}, []string{"status"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful snapshot",
		}),
		LastEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "last_entries",
			Help:      "Entries written by the last successful snapshot",
		}),
	}
}

// Registerer exposes the registry for components that add their own
// collectors (the Badger engine).
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Gatherer exposes the registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveRequest records one finished HTTP request.
func (m *HTTPMetrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *VaultMetrics) TokenMinted()         { m.TokensMinted.Inc() }
func (m *VaultMetrics) MintCollision()       { m.MintCollisions.Inc() }
func (m *VaultMetrics) PersistFailed()       { m.PersistFailures.Inc() }
func (m *VaultMetrics) TokenSpaceExhausted() { m.ExhaustedWords.Inc() }
func (m *VaultMetrics) UnknownToken()        { m.UnknownTokens.Inc() }
func (m *VaultMetrics) VaultSize(n int)      { m.Entries.Set(float64(n)) }

// ObserveCommand records one RESP command. status is "ok" or "error".
func (m *RESPMetrics) ObserveCommand(command, status string) {
	m.CommandsTotal.WithLabelValues(command, status).Inc()
}

// ObserveRun records one snapshot attempt.
func (m *SnapshotMetrics) ObserveRun(entries int, at time.Time, err error) {
	if err != nil {
		m.RunsTotal.WithLabelValues("error").Inc()
		return
	}
	m.RunsTotal.WithLabelValues("ok").Inc()
	m.LastSuccess.Set(float64(at.Unix()))
	m.LastEntries.Set(float64(entries))
}

// Package npmwatch supervises a single npm script, restarting it according
// to configurable policy when it exits.
package npmwatch

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/npmwatch/npmwatch/internal/config"
	"github.com/npmwatch/npmwatch/internal/history"
	hsqlite "github.com/npmwatch/npmwatch/internal/history/sqlite"
	"github.com/npmwatch/npmwatch/internal/metrics"
	"github.com/npmwatch/npmwatch/internal/runner"
	"github.com/npmwatch/npmwatch/internal/shutdown"
	"github.com/npmwatch/npmwatch/internal/supervisor"
)

// Re-export core types for external consumers.

type Config = config.Config

type HistorySink = history.Sink

func DefaultConfig() Config { return config.Default() }

// Monitor wires a runner, a shutdown flag and a supervisor for one script.
type Monitor struct {
	cfg  Config
	flag *shutdown.Flag
	sup  *supervisor.Supervisor
	sink history.Sink
}

// New validates cfg and assembles a Monitor. Optional pieces (metrics
// listener, attempt history) are wired here; their absence costs nothing.
func New(cfg Config) (*Monitor, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	flag := shutdown.NewFlag()
	r := runner.New()
	r.Bin = cfg.Bin
	r.Capture = cfg.ChildLog

	sup := supervisor.New(cfg, r, flag)

	m := &Monitor{cfg: cfg, flag: flag, sup: sup}

	if cfg.MetricsListen != "" {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return nil, err
		}
		go func() {
			if err := metrics.Serve(cfg.MetricsListen); err != nil {
				slog.Warn("metrics listener stopped", "addr", cfg.MetricsListen, "err", err)
			}
		}()
	}
	if cfg.HistoryDSN != "" {
		sink, err := hsqlite.New(cfg.HistoryDSN)
		if err != nil {
			return nil, err
		}
		m.sink = sink
		sup.SetHistory(sink)
	}
	return m, nil
}

// Flag exposes the shared shutdown flag, e.g. for signal wiring.
func (m *Monitor) Flag() *shutdown.Flag { return m.flag }

// Run blocks until the restart policy is exhausted or shutdown is requested.
func (m *Monitor) Run() {
	defer m.close()
	m.sup.Run()
}

// Shutdown requests cooperative termination. Idempotent.
func (m *Monitor) Shutdown() { m.flag.Set() }

// Attempts reports how many attempts were started. Safe to call while Run
// is in flight.
func (m *Monitor) Attempts() int { return m.sup.Attempts() }

func (m *Monitor) close() {
	if m.sink != nil {
		if err := m.sink.Close(); err != nil {
			slog.Warn("failed to close history sink", "err", err)
		}
	}
}

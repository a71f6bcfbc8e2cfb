package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors, registered via Register.
var (
	regOK atomic.Bool

	attempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "npmwatch",
			Subsystem: "script",
			Name:      "attempts_total",
			Help:      "Number of launch attempts of the supervised script.",
		}, []string{"script"},
	)
	cleanExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "npmwatch",
			Subsystem: "script",
			Name:      "clean_exits_total",
			Help:      "Number of attempts that exited with code 0.",
		}, []string{"script"},
	)
	failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "npmwatch",
			Subsystem: "script",
			Name:      "failures_total",
			Help:      "Number of attempts that exited non-zero.",
		}, []string{"script"},
	)
	launchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "npmwatch",
			Subsystem: "script",
			Name:      "launch_failures_total",
			Help:      "Number of attempts where the runner could not be spawned.",
		}, []string{"script"},
	)
	lastExitCode = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "npmwatch",
			Subsystem: "script",
			Name:      "last_exit_code",
			Help:      "Exit code of the most recent completed attempt.",
		}, []string{"script"},
	)
)

// Register registers all collectors with r. Safe to call multiple times;
// calls after the first success are no-ops, and collectors already present
// in the registry are tolerated.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{attempts, cleanExits, failures, launchFailures, lastExitCode}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

func IncAttempt(script string) { attempts.WithLabelValues(script).Inc() }

// ObserveExit records the outcome of one completed attempt.
func ObserveExit(script string, code int) {
	lastExitCode.WithLabelValues(script).Set(float64(code))
	switch {
	case code == 0:
		cleanExits.WithLabelValues(script).Inc()
	default:
		failures.WithLabelValues(script).Inc()
	}
}

func IncLaunchFailure(script string) { launchFailures.WithLabelValues(script).Inc() }

// Handler serves metrics for the default gatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Serve runs a metrics endpoint on addr. Blocks; callers run it in a
// goroutine and treat failure as non-fatal.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

package supervisor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/npmwatch/npmwatch/internal/config"
	"github.com/npmwatch/npmwatch/internal/history"
	"github.com/npmwatch/npmwatch/internal/metrics"
	"github.com/npmwatch/npmwatch/internal/runner"
	"github.com/npmwatch/npmwatch/internal/shutdown"
)

// Runner launches one attempt of the script and reports its exit code (or
// the launch-failure sentinel). It must return promptly once flag is set.
type Runner interface {
	Run(script, dir string, flag *shutdown.Flag, attempt int) int
}

// Restart policy timing defaults.
const (
	DefaultMinRestartInterval = 3 * time.Second        // floor between attempt starts
	DefaultCleanExitCooldown  = 2 * time.Second        // pause after exit code 0
	DefaultCrashRestartDelay  = 500 * time.Millisecond // pause after non-zero exit
)

// Supervisor owns the restart policy: whether to run again, how long to wait
// before the next attempt, and when to stop for good. All state is mutated
// on the goroutine calling Run; the shutdown flag and the attempt counter
// are the only values shared with other goroutines.
type Supervisor struct {
	cfg    config.Config
	runner Runner
	flag   *shutdown.Flag
	sink   history.Sink // optional

	minRestartInterval time.Duration
	cleanExitCooldown  time.Duration
	crashRestartDelay  time.Duration

	attempts    atomic.Int64
	lastStartAt time.Time
}

func New(cfg config.Config, r Runner, flag *shutdown.Flag) *Supervisor {
	return &Supervisor{
		cfg:                cfg,
		runner:             r,
		flag:               flag,
		minRestartInterval: DefaultMinRestartInterval,
		cleanExitCooldown:  DefaultCleanExitCooldown,
		crashRestartDelay:  DefaultCrashRestartDelay,
	}
}

// SetHistory attaches an optional sink recording each completed attempt.
func (s *Supervisor) SetHistory(sink history.Sink) { s.sink = sink }

// Attempts reports how many attempts have been started so far. Safe to call
// while Run is in flight.
func (s *Supervisor) Attempts() int { return int(s.attempts.Load()) }

// Run drives attempts until shutdown is requested or the restart policy is
// exhausted. On return the shutdown flag is set so any in-flight output
// reader winds down as well.
func (s *Supervisor) Run() {
	defer s.flag.Set()

	for !s.flag.IsSet() {
		if s.cfg.Restart && s.cfg.MaxRestarts >= 0 && s.Attempts() >= s.cfg.MaxRestarts {
			slog.Info("restart limit reached, stopping", "max_restarts", s.cfg.MaxRestarts)
			return
		}

		// Throttle crash-loop storms: keep attempt starts at least the
		// minimum interval apart. The first attempt never waits since
		// lastStartAt is the zero time.
		if wait := s.spacingWait(time.Now()); wait > 0 {
			slog.Info("throttling restart", "wait", wait.Round(100*time.Millisecond))
			if !s.flag.Sleep(wait) {
				return
			}
		}

		attempt := int(s.attempts.Add(1))
		s.lastStartAt = time.Now()
		metrics.IncAttempt(s.cfg.Script)

		started := time.Now()
		code := s.runner.Run(s.cfg.Script, s.cfg.WorkDir, s.flag, attempt)
		s.record(started, attempt, code)

		if !s.cfg.Restart || s.flag.IsSet() {
			return
		}

		if code == 0 {
			// A script that exits 0 instantly would otherwise spin.
			slog.Info("script exited cleanly, cooling down", "cooldown", s.cleanExitCooldown)
			if !s.flag.Sleep(s.cleanExitCooldown) {
				return
			}
		} else {
			slog.Warn("script exited abnormally, restarting",
				"code", code, "delay", s.crashRestartDelay)
			if !s.flag.Sleep(s.crashRestartDelay) {
				return
			}
		}
	}
}

// spacingWait returns how long to wait before the next attempt may start.
func (s *Supervisor) spacingWait(now time.Time) time.Duration {
	if s.lastStartAt.IsZero() {
		return 0
	}
	if elapsed := now.Sub(s.lastStartAt); elapsed < s.minRestartInterval {
		return s.minRestartInterval - elapsed
	}
	return 0
}

func (s *Supervisor) record(started time.Time, attempt, code int) {
	metrics.ObserveExit(s.cfg.Script, code)
	if code == runner.LaunchFailed {
		metrics.IncLaunchFailure(s.cfg.Script)
	}
	if s.sink == nil {
		return
	}
	e := history.Event{
		Script:     s.cfg.Script,
		Attempt:    attempt,
		StartedAt:  started,
		FinishedAt: time.Now(),
		ExitCode:   code,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.sink.Send(ctx, e); err != nil {
		slog.Warn("failed to record attempt history", "err", err)
	}
}

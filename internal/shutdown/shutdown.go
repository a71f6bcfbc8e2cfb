package shutdown

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Flag is a one-way cancellation signal shared between the supervisor loop,
// the runner and the signal handler. It can be set exactly once; further
// calls to Set are no-ops. Reads never block and are safe from any goroutine.
type Flag struct {
	set  atomic.Bool
	once sync.Once
	done chan struct{}
}

func NewFlag() *Flag {
	return &Flag{done: make(chan struct{})}
}

// Set marks the flag. Idempotent.
func (f *Flag) Set() {
	f.once.Do(func() {
		f.set.Store(true)
		close(f.done)
	})
}

// IsSet reports whether the flag has been set.
func (f *Flag) IsSet() bool { return f.set.Load() }

// Done returns a channel that is closed on the first Set.
func (f *Flag) Done() <-chan struct{} { return f.done }

// Sleep blocks for d or until the flag is set, whichever comes first.
// It reports false when the sleep was cut short.
func (f *Flag) Sleep(d time.Duration) bool {
	if d <= 0 {
		return !f.IsSet()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-f.done:
		return false
	}
}

// Notify routes termination signals into flag.Set instead of killing the
// process, so the child can be stopped and reaped first. With no signals
// given it defaults to SIGINT and SIGTERM.
func Notify(flag *Flag, sigs ...os.Signal) {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		sig := <-ch
		slog.Info("received signal, shutting down", "signal", sig.String())
		flag.Set()
		signal.Stop(ch)
	}()
}

package npmwatch

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewRejectsMissingWorkDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkDir = filepath.Join(t.TempDir(), "missing")
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error for missing working directory")
	}
}

func TestSingleAttemptWithUnspawnableRunner(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkDir = t.TempDir()
	cfg.Bin = filepath.Join(t.TempDir(), "no-such-npm")
	cfg.Restart = false

	mon, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	done := make(chan struct{})
	go func() {
		mon.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("monitor did not finish a single failed attempt")
	}
	if mon.Attempts() != 1 {
		t.Fatalf("attempts = %d, want 1", mon.Attempts())
	}
	if !mon.Flag().IsSet() {
		t.Fatalf("flag must be set once the monitor returns")
	}
}

func TestShutdownStopsMonitor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkDir = t.TempDir()
	cfg.Bin = filepath.Join(t.TempDir(), "no-such-npm")
	cfg.Restart = true
	cfg.MaxRestarts = -1

	mon, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	done := make(chan struct{})
	go func() {
		mon.Run()
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)
	mon.Shutdown()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("monitor did not stop after Shutdown")
	}
}

func TestHistorySinkRecordsAttempts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkDir = t.TempDir()
	cfg.Bin = filepath.Join(t.TempDir(), "no-such-npm")
	cfg.Restart = false
	cfg.HistoryDSN = filepath.Join(t.TempDir(), "history.db")

	mon, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mon.Run()
	if mon.Attempts() != 1 {
		t.Fatalf("attempts = %d, want 1", mon.Attempts())
	}
}

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

func closeIf(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestChildWriterUnconfigured(t *testing.T) {
	w, err := ChildConfig{}.Writer("start")
	if err != nil {
		t.Fatalf("Writer: %v", err)
	}
	if w != nil {
		t.Fatalf("expected nil writer without Dir or Path")
	}
}

func TestChildWriterWithDir(t *testing.T) {
	dir := t.TempDir()
	w, err := ChildConfig{Dir: dir}.Writer("start")
	if err != nil {
		t.Fatalf("Writer: %v", err)
	}
	if w == nil {
		t.Fatalf("expected writer when Dir is set")
	}
	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	closeIf(w)
	if _, err := os.Stat(filepath.Join(dir, "start.log")); err != nil {
		t.Fatalf("capture file not created: %v", err)
	}
}

func TestChildWriterExplicitPathAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "out.log")
	w, err := ChildConfig{Path: path, Dir: "/ignored"}.Writer("x")
	if err != nil {
		t.Fatalf("Writer: %v", err)
	}
	l, ok := w.(*lj.Logger)
	if !ok {
		t.Fatalf("writer is not a lumberjack logger")
	}
	if l.Filename != path {
		t.Fatalf("explicit path not honored: %q", l.Filename)
	}
	if l.MaxSize != DefaultMaxSizeMB || l.MaxBackups != DefaultMaxBackups || l.MaxAge != DefaultMaxAgeDays {
		t.Fatalf("unexpected rotation defaults: %+v", l)
	}
	closeIf(w)
}

func TestChildWriterOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.log")
	cfg := ChildConfig{Path: path, MaxSizeMB: 1, MaxBackups: 9, MaxAgeDays: 11, Compress: true}
	w, err := cfg.Writer("x")
	if err != nil {
		t.Fatalf("Writer: %v", err)
	}
	l := w.(*lj.Logger)
	if l.MaxSize != 1 || l.MaxBackups != 9 || l.MaxAge != 11 || !l.Compress {
		t.Fatalf("overrides not applied: %+v", l)
	}
	closeIf(w)
}

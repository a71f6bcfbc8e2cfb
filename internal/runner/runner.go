package runner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/npmwatch/npmwatch/internal/logger"
	"github.com/npmwatch/npmwatch/internal/shutdown"
)

// LaunchFailed is the sentinel outcome for attempts whose process could not
// be spawned at all (missing binary, permission denied).
const LaunchFailed = -1

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultStopGrace    = 5 * time.Second
	reapTimeout         = 200 * time.Millisecond
)

// Runner launches one attempt of "<bin> run <script>" and reports its exit
// code. The zero value is not usable; construct with New.
type Runner struct {
	Bin     string             // package-script runner, default "npm"
	Tag     string             // label on forwarded output lines, default "npm"
	Console io.Writer          // destination for forwarded lines, default os.Stdout
	Capture logger.ChildConfig // optional rotating capture of combined output

	// Poll and Grace exist so tests can compress time.
	Poll  time.Duration
	Grace time.Duration
}

func New() *Runner {
	return &Runner{
		Bin:     "npm",
		Tag:     "npm",
		Console: os.Stdout,
		Poll:    defaultPollInterval,
		Grace:   defaultStopGrace,
	}
}

// Run executes the script in dir and blocks until the child exits or flag is
// set. On shutdown the child is asked to terminate and force-killed after
// the grace period. The returned value is the child's exit code or
// LaunchFailed; no error escapes to the caller.
func (r *Runner) Run(script, dir string, flag *shutdown.Flag, attempt int) int {
	cmd := exec.Command(r.Bin, "run", script) // #nosec G204 -- script name comes from operator CLI
	cmd.Dir = dir
	setSysProcAttr(cmd)

	// Both streams feed one line forwarder assigned to cmd.Stdout/Stderr, so
	// cmd.Wait does not return until every buffered line has been copied out.
	fw := r.newForwarder(flag)
	defer func() { _ = fw.Close() }()
	cmd.Stdout = fw
	cmd.Stderr = fw

	abs, _ := filepath.Abs(dir)
	slog.Info("starting script",
		"cmd", fmt.Sprintf("%s run %s", r.Bin, script), "dir", abs, "attempt", attempt)

	if err := cmd.Start(); err != nil {
		slog.Error("failed to launch script runner", "bin", r.Bin, "err", err)
		return LaunchFailed
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	ticker := time.NewTicker(r.Poll)
	defer ticker.Stop()
	for {
		select {
		case err := <-waitCh:
			code := exitCode(err)
			slog.Info("script exited", "code", code, "attempt", attempt)
			return code
		case <-ticker.C:
			if flag.IsSet() {
				return r.terminate(cmd, waitCh)
			}
		}
	}
}

// terminate asks the child's process group to exit and escalates to a kill
// once the grace period runs out.
func (r *Runner) terminate(cmd *exec.Cmd, waitCh <-chan error) int {
	slog.Info("stopping script", "pid", cmd.Process.Pid, "grace", r.Grace)
	terminateGroup(cmd)
	select {
	case err := <-waitCh:
		return exitCode(err)
	case <-time.After(r.Grace):
	}
	slog.Warn("script did not exit in time, killing", "pid", cmd.Process.Pid)
	killGroup(cmd)
	select {
	case err := <-waitCh:
		return exitCode(err)
	case <-time.After(reapTimeout):
		// best-effort; the whole process is about to exit
		return LaunchFailed
	}
}

// maxPendingLine bounds buffering of a child that never emits a newline.
const maxPendingLine = 1024 * 1024

// lineForwarder splits child output into lines and forwards each to the
// console, tagged with the source label, teeing into the capture file when
// configured. Forwarding stops once the flag is set.
type lineForwarder struct {
	mu      sync.Mutex
	console io.Writer
	capture io.WriteCloser
	tag     string
	flag    *shutdown.Flag
	buf     []byte // partial line carried between writes
}

func (r *Runner) newForwarder(flag *shutdown.Flag) *lineForwarder {
	fw := &lineForwarder{console: r.Console, tag: r.Tag, flag: flag}
	if w, err := r.Capture.Writer(r.Tag); err != nil {
		slog.Warn("child output capture disabled", "err", err)
	} else {
		fw.capture = w
	}
	return fw
}

func (f *lineForwarder) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf = append(f.buf, p...)
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			break
		}
		f.emit(f.buf[:i])
		f.buf = f.buf[i+1:]
	}
	if len(f.buf) > maxPendingLine {
		f.emit(f.buf)
		f.buf = nil
	}
	return len(p), nil
}

// Close flushes a trailing partial line and closes the capture file.
func (f *lineForwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buf) > 0 {
		f.emit(f.buf)
		f.buf = nil
	}
	if f.capture != nil {
		err := f.capture.Close()
		f.capture = nil
		return err
	}
	return nil
}

func (f *lineForwarder) emit(line []byte) {
	if f.flag.IsSet() {
		return
	}
	_, _ = fmt.Fprintf(f.console, "[%s] %s\n", f.tag, line)
	if f.capture != nil {
		_, _ = f.capture.Write(line)
		_, _ = f.capture.Write([]byte{'\n'})
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return LaunchFailed
}

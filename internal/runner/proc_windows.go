//go:build windows

package runner

import "os/exec"

func setSysProcAttr(_ *exec.Cmd) {}

// Windows has no SIGTERM delivery to process groups; both stages fall back
// to killing the child process handle.
func terminateGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func killGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

//go:build !windows

package infra

import (
	"context"
	"os"
	"os/exec"
	"syscall"
)

const shellPath = "/bin/sh"

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	return exec.CommandContext(ctx, shellPath, "-c", command)
}

// configureProcess puts the child in its own process group so cancellation
// kills the whole tree, not just the shell. HideWindow has no meaning here.
func configureProcess(cmd *exec.Cmd, _ LaunchOptions) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return killProcess(cmd)
	}
}

func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

// exitSignal names the signal that terminated the process, if any.
func exitSignal(state *os.ProcessState) string {
	if state == nil {
		return ""
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ws.Signal().String()
	}
	return ""
}

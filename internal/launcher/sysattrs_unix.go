//go:build !windows

package launcher

import (
	"os/exec"
	"syscall"
)

// configureDetached starts the child in a new session (setsid). The child
// drops its controlling-terminal association, becomes leader of its own
// process group, and survives the invoking command's exit; signals aimed at
// the invoker's terminal session never reach it.
func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

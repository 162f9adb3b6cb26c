//go:build windows

package launcher

import (
	"os/exec"
	"syscall"
)

// configureDetached launches the child in its own process group without a
// console, the Windows equivalent of a detached session.
func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x00000008, // DETACHED_PROCESS
	}
}

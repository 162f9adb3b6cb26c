//go:build !windows

package terminator

import "syscall"

func signalGraceful(pid int) { _ = syscall.Kill(pid, syscall.SIGTERM) }

func signalKill(pid int) { _ = syscall.Kill(pid, syscall.SIGKILL) }

// Group variants signal the whole process group of a leader pid.
func signalGroupGraceful(pid int) { _ = syscall.Kill(-pid, syscall.SIGTERM) }

func signalGroupKill(pid int) { _ = syscall.Kill(-pid, syscall.SIGKILL) }

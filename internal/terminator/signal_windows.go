//go:build windows

package terminator

import "os"

// Windows has no catchable termination signal for arbitrary processes;
// both phases collapse into Process.Kill.
func signalGraceful(pid int) { signalKill(pid) }

func signalKill(pid int) {
	p, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	_ = p.Kill()
}

func signalGroupGraceful(int) {}

func signalGroupKill(int) {}

//go:build !windows

package terminator

import (
	"os/exec"
	"syscall"
	"testing"
	"time"
)

// startDetached mimics the launcher: new session, so the child leads its
// own process group.
func startDetached(t *testing.T, command string) int {
	t.Helper()
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	t.Cleanup(func() { _ = syscall.Kill(-pid, syscall.SIGKILL) })
	return pid
}

func waitGone(t *testing.T, pid int, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("process %d still alive after %v", pid, within)
}

func TestStopGraceful(t *testing.T) {
	pid := startDetached(t, "sleep 60")
	var term Terminator
	if err := term.Stop(pid, 5*time.Second, false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	waitGone(t, pid, 2*time.Second)
}

func TestStopKillsDescendants(t *testing.T) {
	// Shell parent spawning a sleeping child; both must go.
	pid := startDetached(t, "sleep 60 & wait")
	time.Sleep(200 * time.Millisecond) // let the child spawn

	kids := descendants(pid)
	if len(kids) == 0 {
		t.Fatalf("expected at least one descendant of %d", pid)
	}
	var term Terminator
	if err := term.Stop(pid, 5*time.Second, false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	waitGone(t, pid, 2*time.Second)
	for _, k := range kids {
		waitGone(t, k, 2*time.Second)
	}
}

func TestStopEscalatesWhenTermIgnored(t *testing.T) {
	// The child traps and ignores SIGTERM; only SIGKILL can end it.
	pid := startDetached(t, `trap '' TERM; sleep 60`)
	time.Sleep(100 * time.Millisecond)

	term := Terminator{PollInterval: 50 * time.Millisecond}
	start := time.Now()
	if err := term.Stop(pid, 500*time.Millisecond, false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("escalation took too long: %v", elapsed)
	}
	waitGone(t, pid, 2*time.Second)
}

func TestStopForceSkipsGracePeriod(t *testing.T) {
	pid := startDetached(t, `trap '' TERM; sleep 60`)
	time.Sleep(100 * time.Millisecond)

	var term Terminator
	start := time.Now()
	if err := term.Stop(pid, 30*time.Second, true); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Force mode must not wait out the 30s graceful timeout.
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("force stop waited on graceful phase: %v", elapsed)
	}
	waitGone(t, pid, 2*time.Second)
}

func TestStopOnAlreadyDeadProcessSucceeds(t *testing.T) {
	pid := startDetached(t, "true")
	waitGone(t, pid, 2*time.Second)

	var term Terminator
	if err := term.Stop(pid, time.Second, false); err != nil {
		t.Fatalf("Stop on dead process: %v", err)
	}
}

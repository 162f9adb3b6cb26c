// Package terminator shuts down a supervised process together with its
// descendants. Shutdown is graceful first: every member of the tree gets a
// termination signal it may catch, then anything still alive after the
// timeout receives an unignorable kill.
package terminator

import (
	"fmt"
	"log/slog"
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

const (
	defaultPollInterval = 200 * time.Millisecond
	reapGrace           = 500 * time.Millisecond
)

// Terminator escalates from graceful to forced termination on a timeout.
type Terminator struct {
	// PollInterval is the liveness re-check cadence while waiting for the
	// graceful phase; defaults to 200ms when zero.
	PollInterval time.Duration
}

// Stop terminates pid and all of its descendants. The descendant set is
// enumerated once, at the moment of the call. With force set the graceful
// phase is skipped entirely. An error is returned only when the root process
// survives the forced kill.
func (t Terminator) Stop(pid int, timeout time.Duration, force bool) error {
	interval := t.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	targets := descendants(pid)
	targets = append(targets, pid) // root last, for log clarity

	if !force {
		for _, p := range targets {
			signalGraceful(p)
		}
		// The launcher made the root a session/group leader, so a group
		// signal backstops children that detached into the same group.
		signalGroupGraceful(pid)

		deadline := time.Now().Add(timeout)
		for time.Now().Before(deadline) {
			if len(survivors(targets)) == 0 {
				return nil
			}
			time.Sleep(interval)
		}
	}

	remaining := survivors(targets)
	if !force && len(remaining) > 0 {
		slog.Warn("graceful shutdown timed out, escalating to kill",
			"pid", pid, "survivors", len(remaining))
	}
	if force {
		remaining = targets
	}
	for _, p := range remaining {
		signalKill(p)
	}
	signalGroupKill(pid)

	// OS reaping is asynchronous; give it a moment before declaring failure.
	time.Sleep(reapGrace)
	if processAlive(pid) {
		return fmt.Errorf("process %d survived forced kill", pid)
	}
	return nil
}

// descendants enumerates the recursive children of pid at call time.
func descendants(pid int) []int {
	root, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return nil
	}
	var out []int
	queue := []*gopsproc.Process{root}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		children, err := p.Children()
		if err != nil {
			continue
		}
		for _, c := range children {
			out = append(out, int(c.Pid))
			queue = append(queue, c)
		}
	}
	return out
}

func survivors(pids []int) []int {
	var alive []int
	for _, p := range pids {
		if processAlive(p) {
			alive = append(alive, p)
		}
	}
	return alive
}

// processAlive treats zombies as gone: the process can no longer run, the
// parent just has not reaped it yet.
func processAlive(pid int) bool {
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	statuses, err := p.Status()
	if err != nil {
		return true // exists but unreadable; assume alive
	}
	for _, st := range statuses {
		if st == gopsproc.Zombie {
			return false
		}
	}
	return true
}

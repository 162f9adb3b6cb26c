// Package probe answers "is this record's process still the process it
// claims to be?" and reports best-effort resource usage. Existence alone is
// never enough: the kernel reuses PIDs, so a record is only treated as
// running when the live process's command line or creation time is
// consistent with what the registry remembers.
package probe

import (
	"strings"
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"

	"github.com/lakowske/backdrop/internal/registry"
)

// startedAtTolerance bounds the allowed skew between the recorded launch
// timestamp and the OS-reported process creation time when the command line
// cannot be read (e.g. permission denied).
const startedAtTolerance = 5 * time.Second

// Stats is a point-in-time resource snapshot for a running process.
type Stats struct {
	CPUPercent  float64
	MemoryBytes uint64
	Uptime      time.Duration
	Threads     int32
}

// Prober checks recorded processes against the OS process table.
type Prober struct{}

// IsRunning reports whether a process with the record's PID exists, is not a
// zombie, and matches the record's identity. A reused PID belonging to an
// unrelated process yields false even though the OS reports a live process.
func (Prober) IsRunning(rec registry.Record) bool {
	if !rec.HasPID() {
		return false
	}
	p, err := gopsproc.NewProcess(int32(rec.PID))
	if err != nil {
		return false
	}
	if statuses, err := p.Status(); err == nil {
		for _, st := range statuses {
			if st == gopsproc.Zombie {
				return false
			}
		}
	}
	return matchesIdentity(p, rec)
}

// matchesIdentity confirms the live process against the record. The primary
// check mirrors the registry's origin: any token of the recorded command must
// appear in the live command line. When the command line is unreadable the
// creation time is compared against StartedAt instead.
func matchesIdentity(p *gopsproc.Process, rec registry.Record) bool {
	cmdline, err := p.Cmdline()
	if err == nil && cmdline != "" {
		for _, tok := range strings.Fields(rec.Command) {
			if strings.Contains(cmdline, tok) {
				return true
			}
		}
		return false
	}
	if rec.StartedAt.IsZero() {
		return false
	}
	created := startUnix(rec.PID)
	if created == 0 {
		return false
	}
	diff := time.Unix(created, 0).Sub(rec.StartedAt)
	if diff < 0 {
		diff = -diff
	}
	return diff <= startedAtTolerance
}

// Stats returns resource metrics for the record's process, or ok=false when
// it is not running. Permission-denied and vanished-process races degrade to
// zero values instead of failing.
func (pr Prober) Stats(rec registry.Record) (Stats, bool) {
	if !pr.IsRunning(rec) {
		return Stats{}, false
	}
	p, err := gopsproc.NewProcess(int32(rec.PID))
	if err != nil {
		return Stats{}, false
	}
	var s Stats
	if cpu, err := p.CPUPercent(); err == nil {
		s.CPUPercent = cpu
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		s.MemoryBytes = mem.RSS
	}
	if n, err := p.NumThreads(); err == nil {
		s.Threads = n
	}
	if !rec.StartedAt.IsZero() {
		s.Uptime = time.Since(rec.StartedAt)
	}
	return s, true
}

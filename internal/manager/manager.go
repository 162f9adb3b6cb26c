package manager

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/lakowske/backdrop/internal/config"
	"github.com/lakowske/backdrop/internal/history"
	"github.com/lakowske/backdrop/internal/launcher"
	"github.com/lakowske/backdrop/internal/name"
	"github.com/lakowske/backdrop/internal/probe"
	"github.com/lakowske/backdrop/internal/registry"
	"github.com/lakowske/backdrop/internal/terminator"
)

// Manager ties the registry, launcher, prober and terminator together.
// It holds no state between invocations beyond the registry file; every
// operation re-reads the registry and the OS process table.
type Manager struct {
	cfg      config.Config
	registry *registry.Registry
	launcher launcher.Launcher
	prober   probe.Prober
	term     stopper
	sink     history.Sink
}

// stopper terminates a process tree. Satisfied by terminator.Terminator;
// a seam for tests that need termination to fail.
type stopper interface {
	Stop(pid int, timeout time.Duration, force bool) error
}

// StartSpec describes one server to launch.
type StartSpec struct {
	Command string
	Name    string // optional, derived from Command when empty
	WorkDir string
	Env     []string // KEY=VALUE pairs appended to the inherited environment
}

// StartResult reports a successful launch.
type StartResult struct {
	Name      string
	PID       int
	StartedAt time.Time
	StdoutLog string
	StderrLog string
}

// ServerStatus is one row of the status report.
type ServerStatus struct {
	Name      string    `json:"name"`
	Running   bool      `json:"running"`
	PID       int       `json:"pid"`
	Command   string    `json:"command"`
	WorkDir   string    `json:"cwd,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime,omitempty"`

	CPUPercent  float64 `json:"cpu_percent,omitempty"`
	MemoryBytes uint64  `json:"memory_bytes,omitempty"`
	Threads     int     `json:"threads,omitempty"`

	StdoutLog string `json:"stdout_log"`
	StderrLog string `json:"stderr_log"`
}

// StopResult reports the outcome of stopping one server.
type StopResult struct {
	Name    string
	PID     int
	Cleanup bool // record was stale and only needed purging
	Err     error
}

func New(cfg config.Config, sink history.Sink) *Manager {
	return &Manager{
		cfg:      cfg,
		registry: registry.New(cfg.BaseDir),
		launcher: launcher.Launcher{LogDir: cfg.LogDir},
		term:     terminator.Terminator{PollInterval: cfg.StopPollInterval},
		sink:     sink,
	}
}

// Registry exposes the backing registry, mainly for tests.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// Start launches a detached server and registers it once a short
// verification window confirms it survived startup.
func (m *Manager) Start(spec StartSpec) (StartResult, error) {
	srvName := name.Derive(spec.Command, spec.Name)

	var launched launcher.Launched
	var purged []registry.Record
	err := m.registry.WithLock(func() error {
		records, err := m.registry.Load()
		if err != nil {
			return err
		}
		// Reconcile the whole registry before the collision check: every
		// dead entry is purged, not just one holding the requested name.
		for n, rec := range records {
			if !m.prober.IsRunning(rec) {
				delete(records, n)
				purged = append(purged, rec)
			}
		}
		if len(purged) > 0 {
			if err := m.registry.Save(records); err != nil {
				purged = nil
				return err
			}
		}
		if rec, ok := records[srvName]; ok {
			return &AlreadyRunningError{Name: srvName, PID: rec.PID}
		}

		launched, err = m.launcher.Launch(srvName, spec.Command, spec.WorkDir, spec.Env)
		if err != nil {
			return err
		}

		records[srvName] = registry.Record{
			Name:      srvName,
			Command:   spec.Command,
			PID:       launched.PID,
			StartedAt: launched.StartedAt,
			StdoutLog: launched.StdoutLog,
			StderrLog: launched.StderrLog,
			WorkDir:   launched.WorkDir,
		}
		return m.registry.Save(records)
	})
	// Purged entries were persisted before any rejection, so their cleanup
	// events are emitted even when the start itself fails.
	for _, rec := range purged {
		m.emit(history.EventCleanup, rec)
	}
	if err != nil {
		return StartResult{}, err
	}

	// Give the process a moment to crash on bad config or missing
	// binaries before reporting success.
	time.Sleep(m.cfg.StartVerifyDelay)

	rec := registry.Record{
		Name:      srvName,
		Command:   spec.Command,
		PID:       launched.PID,
		StartedAt: launched.StartedAt,
		StdoutLog: launched.StdoutLog,
		StderrLog: launched.StderrLog,
		WorkDir:   launched.WorkDir,
	}
	if !m.prober.IsRunning(rec) {
		if rmErr := m.removeRecord(srvName); rmErr != nil {
			slog.Warn("failed to remove record after startup failure", "name", srvName, "error", rmErr)
		}
		return StartResult{}, &StartupFailedError{Name: srvName, StderrLog: launched.StderrLog}
	}

	m.emit(history.EventStart, rec)
	return StartResult{
		Name:      srvName,
		PID:       launched.PID,
		StartedAt: launched.StartedAt,
		StdoutLog: launched.StdoutLog,
		StderrLog: launched.StderrLog,
	}, nil
}

// Stop terminates the named server and removes its record. A stale record
// is purged and reported via NotRunningError; the desired state still
// holds, so callers may treat it as success.
func (m *Manager) Stop(srvName string, force bool) error {
	srvName = name.Sanitize(srvName)

	var rec registry.Record
	var stale bool
	err := m.registry.WithLock(func() error {
		records, err := m.registry.Load()
		if err != nil {
			return err
		}
		var ok bool
		rec, ok = records[srvName]
		if !ok {
			return &NotFoundError{Name: srvName}
		}
		if !m.prober.IsRunning(rec) {
			stale = true
			delete(records, srvName)
			return m.registry.Save(records)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if stale {
		m.emit(history.EventCleanup, rec)
		return &NotRunningError{Name: srvName}
	}

	// Terminate outside the lock; killing can take the whole grace window
	// and other invocations should not stall behind it.
	if err := m.term.Stop(rec.PID, m.cfg.StopTimeout, force); err != nil {
		return &TerminationFailedError{Name: srvName, PID: rec.PID, Err: err}
	}

	if err := m.removeRecord(srvName); err != nil {
		return err
	}
	m.emit(history.EventStop, rec)
	return nil
}

// Restart stops the named server and starts it again with its recorded
// command and working directory. If the stop fails the record is left
// intact and nothing is relaunched.
func (m *Manager) Restart(srvName string, force bool) (StartResult, error) {
	srvName = name.Sanitize(srvName)

	records, err := m.registry.Load()
	if err != nil {
		return StartResult{}, err
	}
	rec, ok := records[srvName]
	if !ok {
		return StartResult{}, &NotFoundError{Name: srvName}
	}

	if err := m.Stop(srvName, force); err != nil {
		var nr *NotRunningError
		if !errors.As(err, &nr) {
			return StartResult{}, err
		}
		// Stale entry was purged; relaunch proceeds.
	}

	time.Sleep(m.cfg.RestartDelay)

	return m.Start(StartSpec{Command: rec.Command, Name: srvName, WorkDir: rec.WorkDir})
}

// Status reconciles the registry against the process table and reports
// every registered server. withStats adds CPU, memory and thread samples.
func (m *Manager) Status(withStats bool) ([]ServerStatus, error) {
	var records map[string]registry.Record
	err := m.registry.WithLock(func() error {
		var err error
		records, err = m.registry.Reconcile(m.prober.IsRunning)
		return err
	})
	if err != nil {
		return nil, err
	}

	statuses := make([]ServerStatus, 0, len(records))
	for _, rec := range records {
		st := ServerStatus{
			Name:      rec.Name,
			Running:   true,
			PID:       rec.PID,
			Command:   rec.Command,
			WorkDir:   rec.WorkDir,
			StartedAt: rec.StartedAt,
			Uptime:    probe.FormatUptime(time.Since(rec.StartedAt)),
			StdoutLog: rec.StdoutLog,
			StderrLog: rec.StderrLog,
		}
		if withStats {
			if stats, ok := m.prober.Stats(rec); ok {
				st.CPUPercent = stats.CPUPercent
				st.MemoryBytes = stats.MemoryBytes
				st.Threads = int(stats.Threads)
			}
		}
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses, nil
}

// StopAll stops every registered server, continuing past individual
// failures.
func (m *Manager) StopAll(force bool) ([]StopResult, error) {
	records, err := m.registry.Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(records))
	for n := range records {
		names = append(names, n)
	}
	sort.Strings(names)

	results := make([]StopResult, 0, len(names))
	for _, n := range names {
		res := StopResult{Name: n, PID: records[n].PID}
		if err := m.Stop(n, force); err != nil {
			var nr *NotRunningError
			if errors.As(err, &nr) {
				res.Cleanup = true
			} else {
				res.Err = err
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// LogPaths returns the stdout and stderr log paths for a registered server.
func (m *Manager) LogPaths(srvName string) (stdout, stderr string, err error) {
	srvName = name.Sanitize(srvName)
	records, err := m.registry.Load()
	if err != nil {
		return "", "", err
	}
	rec, ok := records[srvName]
	if !ok {
		return "", "", &NotFoundError{Name: srvName}
	}
	return rec.StdoutLog, rec.StderrLog, nil
}

func (m *Manager) removeRecord(srvName string) error {
	return m.registry.WithLock(func() error {
		records, err := m.registry.Load()
		if err != nil {
			return err
		}
		if _, ok := records[srvName]; !ok {
			return nil
		}
		delete(records, srvName)
		return m.registry.Save(records)
	})
}

// emit records a lifecycle event. Sinks are best effort and never block
// process control.
func (m *Manager) emit(t history.EventType, rec registry.Record) {
	if m.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e := history.Event{Type: t, OccurredAt: time.Now().UTC(), Record: rec}
	if err := m.sink.Send(ctx, e); err != nil {
		slog.Warn("history sink send failed", "event", string(t), "name", rec.Name, "error", err)
	}
}

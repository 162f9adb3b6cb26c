// Package launcher starts supervised processes detached from the invoking
// terminal. The child joins a new session with its standard streams bound to
// per-process log files, so it outlives the short-lived control command and
// never inherits the invoker's terminal.
package launcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const bannerSeparator = "============================================================"

// Launcher opens per-process log files under LogDir and starts commands
// detached. It performs no registry bookkeeping; the manager records what
// Launch returns.
type Launcher struct {
	LogDir string
}

// Launched describes a successfully started process.
type Launched struct {
	PID       int
	StartedAt time.Time
	StdoutLog string
	StderrLog string
	WorkDir   string
}

// LogPaths returns the stdout and stderr log locations for a process name.
// Paths are derived, not read from disk, so they are stable across restarts.
func (l Launcher) LogPaths(name string) (stdout, stderr string) {
	return filepath.Join(l.LogDir, name+".log"),
		filepath.Join(l.LogDir, name+"_error.log")
}

// Launch starts command detached with stdout/stderr appended to the
// process's log files. A startup banner is written to the stdout log first
// so the log remains self-describing across restarts. The returned PID is
// provisional: callers must verify liveness after a settle delay before
// trusting it.
func (l Launcher) Launch(name, command, workDir string, env []string) (Launched, error) {
	if strings.TrimSpace(command) == "" {
		return Launched{}, fmt.Errorf("empty command for %q", name)
	}
	if err := os.MkdirAll(l.LogDir, 0o750); err != nil {
		return Launched{}, fmt.Errorf("create log dir %s: %w", l.LogDir, err)
	}
	stdoutPath, stderrPath := l.LogPaths(name)

	// Child streams must be real file descriptors: anything else makes
	// os/exec pipe the output through this process, which is about to exit.
	outF, err := os.OpenFile(stdoutPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return Launched{}, fmt.Errorf("open stdout log: %w", err)
	}
	errF, err := os.OpenFile(stderrPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		_ = outF.Close()
		return Launched{}, fmt.Errorf("open stderr log: %w", err)
	}
	defer func() {
		_ = outF.Close()
		_ = errF.Close()
	}()

	startedAt := time.Now().Truncate(time.Second)
	if err := writeBanner(outF, name, command, startedAt); err != nil {
		return Launched{}, fmt.Errorf("write startup banner: %w", err)
	}

	cmd, err := BuildCommand(command)
	if err != nil {
		return Launched{}, fmt.Errorf("build command for %q: %w", name, err)
	}
	if workDir != "" {
		cmd.Dir = workDir
	}
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stdout = outF
	cmd.Stderr = errF
	configureDetached(cmd)

	if err := cmd.Start(); err != nil {
		return Launched{}, fmt.Errorf("start %q: %w", command, err)
	}
	pid := cmd.Process.Pid
	// The child is on its own from here; dropping the handle keeps this
	// invocation from having to reap it.
	_ = cmd.Process.Release()

	// An empty Dir means the child inherited this invocation's working
	// directory; record that so the persisted cwd names a real location.
	dir := cmd.Dir
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}

	slog.Info("launched process", "name", name, "pid", pid, "command", command)
	return Launched{
		PID:       pid,
		StartedAt: startedAt,
		StdoutLog: stdoutPath,
		StderrLog: stderrPath,
		WorkDir:   dir,
	}, nil
}

func writeBanner(f *os.File, name, command string, at time.Time) error {
	banner := fmt.Sprintf("\n%s\nStarting %s at %s\nCommand: %s\n%s\n\n",
		bannerSeparator, name, at.Format("2006-01-02 15:04:05"), command, bannerSeparator)
	_, err := f.WriteString(banner)
	return err
}

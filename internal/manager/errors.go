package manager

import "fmt"

// NotFoundError is returned when no registry record exists for a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no server named %q", e.Name)
}

// AlreadyRunningError is returned by Start when a live server holds the name.
type AlreadyRunningError struct {
	Name string
	PID  int
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("server %q is already running (PID %d)", e.Name, e.PID)
}

// NotRunningError is returned by Stop when the record existed but the
// process was already gone. The stale record has been purged, so the
// desired state holds; callers usually report it as a cleanup, not a
// failure.
type NotRunningError struct {
	Name string
}

func (e *NotRunningError) Error() string {
	return fmt.Sprintf("server %q was not running, removed stale entry", e.Name)
}

// StartupFailedError is returned when a launched process dies before the
// verification window ends. No registry entry is left behind.
type StartupFailedError struct {
	Name      string
	StderrLog string
}

func (e *StartupFailedError) Error() string {
	return fmt.Sprintf("server %q failed to start, check %s", e.Name, e.StderrLog)
}

// TerminationFailedError is returned when a process survives both the
// graceful window and the forced kill. The registry entry is kept.
type TerminationFailedError struct {
	Name string
	PID  int
	Err  error
}

func (e *TerminationFailedError) Error() string {
	return fmt.Sprintf("failed to stop server %q (PID %d): %v", e.Name, e.PID, e.Err)
}

func (e *TerminationFailedError) Unwrap() error { return e.Err }

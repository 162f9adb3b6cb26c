package registry

import "time"

// Record is the persisted metadata for one supervised process.
// Name is unique across all live entries. PID is zero once the process has
// been stopped. StartedAt is stored with second precision so it round-trips
// through JSON and can be compared against OS process creation times.
type Record struct {
	Name      string    `json:"name"`
	Command   string    `json:"command"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	StdoutLog string    `json:"stdout_log"`
	StderrLog string    `json:"stderr_log"`
	WorkDir   string    `json:"cwd"`
}

// HasPID reports whether the record claims a live OS process. A record with
// a PID is authoritative only after a liveness probe confirms identity.
func (r Record) HasPID() bool { return r.PID > 0 }

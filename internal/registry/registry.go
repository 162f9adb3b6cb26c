// Package registry persists the mapping from process name to process record
// as a single JSON document. The store is a cache of observable truth, not
// the truth itself: loads tolerate missing or corrupt files, every mutation
// rewrites the full document through a temp-file rename, and reconciliation
// re-derives the mapping from the OS process table before decisions are made.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
)

const storeFile = "servers.json"

// Registry is a durable name -> Record mapping backed by one JSON file.
// At most one controlling invocation is expected to mutate it at a time;
// an advisory flock around load-mutate-save sequences (WithLock) guards
// against accidental concurrent runs.
type Registry struct {
	dir  string
	path string
}

// New returns a registry stored under dir (created on first save).
func New(dir string) *Registry {
	return &Registry{dir: dir, path: filepath.Join(dir, storeFile)}
}

// Path returns the location of the backing document.
func (r *Registry) Path() string { return r.path }

// Load reads the full mapping. A missing or corrupt store yields an empty
// mapping rather than an error: corruption must never block process control.
func (r *Registry) Load() (map[string]Record, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Record{}, nil
		}
		return nil, fmt.Errorf("read registry %s: %w", r.path, err)
	}
	var m map[string]Record
	if err := json.Unmarshal(b, &m); err != nil {
		slog.Warn("registry store is corrupt, treating as empty",
			"path", r.path, "error", err)
		return map[string]Record{}, nil
	}
	if m == nil {
		m = map[string]Record{}
	}
	return m, nil
}

// Save overwrites the full document atomically: the new content is written
// to a temp file in the same directory and renamed into place, so a reader
// between two writes always sees a self-consistent snapshot.
func (r *Registry) Save(m map[string]Record) error {
	if err := os.MkdirAll(r.dir, 0o750); err != nil {
		return fmt.Errorf("create registry dir %s: %w", r.dir, err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	tmp, err := os.CreateTemp(r.dir, storeFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create registry temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write registry temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close registry temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace registry %s: %w", r.path, err)
	}
	return nil
}

// Reconcile purges entries whose liveness check fails and persists the
// pruned mapping when it changed. alive decides whether a record still
// refers to the process it claims to be.
func (r *Registry) Reconcile(alive func(Record) bool) (map[string]Record, error) {
	m, err := r.Load()
	if err != nil {
		return nil, err
	}
	pruned := maps.Clone(m)
	for n, rec := range m {
		if !alive(rec) {
			slog.Debug("purging dead registry entry", "name", n, "pid", rec.PID)
			delete(pruned, n)
		}
	}
	if len(pruned) != len(m) {
		if err := r.Save(pruned); err != nil {
			return nil, err
		}
	}
	return pruned, nil
}

package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testRecord(name string, pid int) Record {
	return Record{
		Name:      name,
		Command:   "sleep 100",
		PID:       pid,
		StartedAt: time.Now().Truncate(time.Second),
		StdoutLog: "/tmp/" + name + ".log",
		StderrLog: "/tmp/" + name + "_error.log",
		WorkDir:   "/tmp",
	}
}

func TestLoadMissingStoreIsEmpty(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "nope"))
	m, err := r.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty mapping, got %d entries", len(m))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r := New(t.TempDir())
	want := testRecord("web", 4242)
	if err := r.Save(map[string]Record{"web": want}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, err := r.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := m["web"]
	if !ok {
		t.Fatalf("record missing after round trip: %+v", m)
	}
	if got.Name != want.Name || got.Command != want.Command || got.PID != want.PID ||
		got.StdoutLog != want.StdoutLog || got.StderrLog != want.StderrLog || got.WorkDir != want.WorkDir {
		t.Fatalf("record fields changed: got %+v want %+v", got, want)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Fatalf("timestamp did not round-trip: got %v want %v", got.StartedAt, want.StartedAt)
	}
}

func TestLoadCorruptStoreIsEmpty(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	if err := os.WriteFile(r.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt store: %v", err)
	}
	m, err := r.Load()
	if err != nil {
		t.Fatalf("Load on corrupt store must not fail: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty mapping from corrupt store, got %+v", m)
	}
}

func TestSaveOverwritesFully(t *testing.T) {
	r := New(t.TempDir())
	if err := r.Save(map[string]Record{"a": testRecord("a", 1), "b": testRecord("b", 2)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := r.Save(map[string]Record{"b": testRecord("b", 2)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, _ := r.Load()
	if _, ok := m["a"]; ok {
		t.Fatalf("full overwrite expected, stale entry survived: %+v", m)
	}
}

func TestReconcilePurgesDeadEntries(t *testing.T) {
	r := New(t.TempDir())
	seed := map[string]Record{
		"live": testRecord("live", 10),
		"dead": testRecord("dead", 20),
	}
	if err := r.Save(seed); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, err := r.Reconcile(func(rec Record) bool { return rec.Name == "live" })
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if _, ok := m["dead"]; ok {
		t.Fatalf("dead entry not purged")
	}
	if _, ok := m["live"]; !ok {
		t.Fatalf("live entry lost")
	}
	// Purge must be persisted.
	m2, _ := r.Load()
	if _, ok := m2["dead"]; ok {
		t.Fatalf("purge was not persisted")
	}
}

func TestWithLockSerializesMutation(t *testing.T) {
	r := New(t.TempDir())
	ran := false
	err := r.WithLock(func() error {
		ran = true
		return r.Save(map[string]Record{"x": testRecord("x", 1)})
	})
	if err != nil || !ran {
		t.Fatalf("WithLock: ran=%v err=%v", ran, err)
	}
}

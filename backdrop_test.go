//go:build !windows

package backdrop

import (
	"testing"
	"time"
)

func TestFacadeLifecycle(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	base := t.TempDir()
	cfg.BaseDir = base
	cfg.LogDir = base + "/logs"
	cfg.StartVerifyDelay = 200 * time.Millisecond
	cfg.StopPollInterval = 50 * time.Millisecond

	m := New(cfg)

	res, err := m.Start(StartSpec{Command: "sleep 60", Name: "embedded"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _, _ = m.StopAll(true) }()

	statuses, err := m.Status(false)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(statuses) != 1 || statuses[0].PID != res.PID {
		t.Fatalf("unexpected statuses %+v", statuses)
	}

	stdout, _, err := m.LogPaths("embedded")
	if err != nil {
		t.Fatalf("LogPaths: %v", err)
	}
	if stdout == "" {
		t.Error("empty stdout log path")
	}

	if err := m.Stop("embedded", false); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestNewWithHistorySQLite(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.BaseDir = t.TempDir()

	m, err := NewWithHistory(cfg, "sqlite://"+cfg.BaseDir+"/history.db")
	if err != nil {
		t.Fatalf("NewWithHistory: %v", err)
	}
	if m == nil {
		t.Fatal("nil manager")
	}

	if _, err := NewWithHistory(cfg, "bogus://nope"); err == nil {
		t.Error("expected error for unsupported DSN")
	}
}

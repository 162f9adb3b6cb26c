package metrics

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExporterSnapshot(t *testing.T) {
	e := NewExporter()
	e.Observe(Sample{
		Name:          "web",
		PID:           4242,
		Running:       true,
		CPUPercent:    12.5,
		MemoryBytes:   64 << 20,
		Threads:       7,
		UptimeSeconds: 90,
	})
	e.Observe(Sample{Name: "stale", Running: false})

	var buf bytes.Buffer
	if err := e.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`backdrop_server_up{name="web"} 1`,
		`backdrop_server_up{name="stale"} 0`,
		`backdrop_server_pid{name="web"} 4242`,
		`backdrop_server_cpu_percent{name="web"} 12.5`,
		`backdrop_server_threads{name="web"} 7`,
		`backdrop_server_uptime_seconds{name="web"} 90`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	// Stale servers must not report resource gauges.
	if strings.Contains(out, `backdrop_server_pid{name="stale"}`) {
		t.Errorf("stale server exported a pid gauge:\n%s", out)
	}
}

func TestExporterWriteFile(t *testing.T) {
	e := NewExporter()
	e.Observe(Sample{Name: "db", PID: 100, Running: true, UptimeSeconds: 5})

	path := filepath.Join(t.TempDir(), "backdrop.prom")
	if err := e.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `backdrop_server_up{name="db"} 1`) {
		t.Errorf("file missing up gauge:\n%s", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %v", entries)
	}
}

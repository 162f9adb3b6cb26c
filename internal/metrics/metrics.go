package metrics

import (
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Sample is one server's snapshot fed into the exporter.
type Sample struct {
	Name          string
	PID           int
	Running       bool
	CPUPercent    float64
	MemoryBytes   uint64
	Threads       int
	UptimeSeconds float64
}

// Exporter collects per-server gauges into a private registry and renders
// them in Prometheus text exposition format. Each invocation builds a fresh
// snapshot rather than keeping a resident scrape endpoint.
type Exporter struct {
	registry *prometheus.Registry

	up         *prometheus.GaugeVec
	pid        *prometheus.GaugeVec
	cpuPercent *prometheus.GaugeVec
	memBytes   *prometheus.GaugeVec
	threads    *prometheus.GaugeVec
	uptime     *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	labels := []string{"name"}
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "backdrop",
			Subsystem: "server",
			Name:      "up",
			Help:      "Whether the server process is running (1) or its record is stale (0).",
		}, labels),
		pid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "backdrop",
			Subsystem: "server",
			Name:      "pid",
			Help:      "PID recorded for the server.",
		}, labels),
		cpuPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "backdrop",
			Subsystem: "server",
			Name:      "cpu_percent",
			Help:      "CPU usage percent sampled at export time.",
		}, labels),
		memBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "backdrop",
			Subsystem: "server",
			Name:      "memory_bytes",
			Help:      "Resident set size in bytes.",
		}, labels),
		threads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "backdrop",
			Subsystem: "server",
			Name:      "threads",
			Help:      "Thread count of the server process.",
		}, labels),
		uptime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "backdrop",
			Subsystem: "server",
			Name:      "uptime_seconds",
			Help:      "Seconds since the server was started.",
		}, labels),
	}
	e.registry.MustRegister(e.up, e.pid, e.cpuPercent, e.memBytes, e.threads, e.uptime)
	return e
}

// Observe records one server sample. Resource gauges are only set for
// running servers so stale records export up=0 and nothing else.
func (e *Exporter) Observe(s Sample) {
	if !s.Running {
		e.up.WithLabelValues(s.Name).Set(0)
		return
	}
	e.up.WithLabelValues(s.Name).Set(1)
	e.pid.WithLabelValues(s.Name).Set(float64(s.PID))
	e.cpuPercent.WithLabelValues(s.Name).Set(s.CPUPercent)
	e.memBytes.WithLabelValues(s.Name).Set(float64(s.MemoryBytes))
	e.threads.WithLabelValues(s.Name).Set(float64(s.Threads))
	e.uptime.WithLabelValues(s.Name).Set(s.UptimeSeconds)
}

// WriteTo renders the current snapshot in text exposition format.
func (e *Exporter) WriteTo(w io.Writer) error {
	mfs, err := e.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes the snapshot to path atomically so a node_exporter
// textfile collector never reads a partial file.
func (e *Exporter) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if err := e.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package backdrop

import (
	"github.com/lakowske/backdrop/internal/config"
	"github.com/lakowske/backdrop/internal/history"
	"github.com/lakowske/backdrop/internal/history/factory"
	"github.com/lakowske/backdrop/internal/manager"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = config.Config

type StartSpec = manager.StartSpec

type StartResult = manager.StartResult

type ServerStatus = manager.ServerStatus

type StopResult = manager.StopResult

type HistorySink = history.Sink

// Manager is a thin facade over internal/manager.Manager.
// It provides a stable public API for embedding.
type Manager struct{ inner *manager.Manager }

// New builds a manager from config with no history sink.
func New(cfg Config) *Manager { return &Manager{inner: manager.New(cfg, nil)} }

// NewWithHistory builds a manager whose lifecycle events go to the sink
// described by dsn. See internal/history/factory for supported formats.
func NewWithHistory(cfg Config, dsn string) (*Manager, error) {
	sink, err := factory.NewSinkFromDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &Manager{inner: manager.New(cfg, sink)}, nil
}

// LoadConfig reads TOML configuration from path, applying defaults for
// anything unset. An empty path yields pure defaults.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

func (m *Manager) Start(spec StartSpec) (StartResult, error) { return m.inner.Start(spec) }
func (m *Manager) Stop(name string, force bool) error        { return m.inner.Stop(name, force) }
func (m *Manager) Restart(name string, force bool) (StartResult, error) {
	return m.inner.Restart(name, force)
}
func (m *Manager) Status(withStats bool) ([]ServerStatus, error) { return m.inner.Status(withStats) }
func (m *Manager) StopAll(force bool) ([]StopResult, error)      { return m.inner.StopAll(force) }
func (m *Manager) LogPaths(name string) (stdout, stderr string, err error) {
	return m.inner.LogPaths(name)
}

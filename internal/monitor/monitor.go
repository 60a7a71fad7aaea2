package monitor

import (
	"context"
	"log/slog"
	"time"

	"kamsent/internal/config"
	"kamsent/internal/models"
	"kamsent/internal/sensors"
)

// Monitor owns the cache, history, and one sampler per detected sensor
// domain. It is constructed explicitly and started/stopped by the caller;
// nothing spins up at package load time.
type Monitor struct {
	cache    *Cache
	history  *HistoryStore
	samplers []*Sampler
	logger   *slog.Logger
}

// New builds a monitor for the given sources. Cache slots and history
// buffers exist for every known metric, including those no detected source
// provides, so absent hardware renders as N/A rather than missing keys.
func New(cfg config.Sampling, srcs []sensors.Source, logger *slog.Logger) *Monitor {
	cache := NewCache(models.AllMetrics())
	history := NewHistoryStore(cfg.HistorySize, models.AllMetrics())

	m := &Monitor{cache: cache, history: history, logger: logger}
	for _, src := range srcs {
		interval := intervalFor(cfg, src.Domain())
		m.samplers = append(m.samplers, NewSampler(src, interval, cache, history, cfg.MaxFailureStreak, logger))
	}
	return m
}

func intervalFor(cfg config.Sampling, domain string) time.Duration {
	switch domain {
	case sensors.DomainCPU:
		return cfg.CPUInterval
	case sensors.DomainGPU:
		return cfg.GPUInterval
	case sensors.DomainThermal, sensors.DomainVoltage:
		return cfg.ThermalInterval
	case sensors.DomainNetwork:
		return cfg.NetworkInterval
	default:
		return cfg.NetworkInterval
	}
}

// Prime polls every domain once, synchronously, so the cache is populated
// (and delta references established) before the HTTP server starts taking
// requests.
func (m *Monitor) Prime(ctx context.Context) {
	for _, s := range m.samplers {
		s.Prime(ctx)
	}
}

// Start launches all sampler loops.
func (m *Monitor) Start() {
	for _, s := range m.samplers {
		s.Start()
	}
	m.logger.Info("samplers started", slog.Int("domains", len(m.samplers)))
}

// Stop halts every sampler and waits for in-flight polls to complete.
func (m *Monitor) Stop() {
	for _, s := range m.samplers {
		s.Stop()
	}
	m.logger.Info("samplers stopped")
}

// Cache exposes the read side of the telemetry cache.
func (m *Monitor) Cache() *Cache { return m.cache }

// History exposes the read side of the rolling history.
func (m *Monitor) History() *HistoryStore { return m.history }

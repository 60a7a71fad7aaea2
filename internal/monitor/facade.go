package monitor

import (
	"time"

	"kamsent/internal/models"
	"kamsent/internal/warnings"
)

// Facade assembles the per-request stats response from cache and history
// snapshots plus the warning evaluation over exactly those snapshots. It
// never touches hardware; everything it reads was put there by the samplers.
type Facade struct {
	cache      *Cache
	history    *HistoryStore
	engine     *warnings.Engine
	thresholds *warnings.Store
	now        func() time.Time
}

// NewFacade wires the read-only snapshot assembler.
func NewFacade(m *Monitor, engine *warnings.Engine, thresholds *warnings.Store) *Facade {
	return &Facade{
		cache:      m.Cache(),
		history:    m.History(),
		engine:     engine,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Snapshot builds one internally consistent response: the warnings are
// computed from the same metric and history copies that are returned, so a
// warning can never reference a value the caller does not see.
func (f *Facade) Snapshot() models.StatsSnapshot {
	metrics := f.cache.All()
	history := f.history.SnapshotAll()
	warns := f.engine.Evaluate(metrics, history, f.thresholds.Current())

	return models.StatsSnapshot{
		Metrics:   metrics,
		History:   history,
		Warnings:  warns,
		Timestamp: f.now(),
	}
}

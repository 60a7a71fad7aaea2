// Package monitor owns the telemetry cache, rolling history, and the
// per-domain sampler loops that feed them. Request handlers only ever read
// from here; no hardware I/O happens on the request path.
package monitor

import (
	"sync"
	"time"

	"kamsent/internal/models"
)

// slot guards one metric's latest reading. Value and timestamp are replaced
// together under the lock so a reader can never observe a torn pair.
type slot struct {
	mu      sync.RWMutex
	reading models.SensorReading
}

// Cache holds the latest reading per metric. Each slot has its own lock so a
// slow domain never blocks reads of another. The slot set is fixed at
// construction; Get and Set never mutate the map itself.
type Cache struct {
	slots map[models.Metric]*slot
}

// NewCache creates a cache with one empty slot per metric. Until a sampler
// writes, every reading has a nil value and zero timestamp.
func NewCache(metrics []models.Metric) *Cache {
	slots := make(map[models.Metric]*slot, len(metrics))
	for _, m := range metrics {
		slots[m] = &slot{}
	}
	return &Cache{slots: slots}
}

// Get returns the last known reading without blocking on samplers. Stale
// readings are returned as-is; the caller inspects CapturedAt. Unknown
// metrics return a zero reading.
func (c *Cache) Get(metric models.Metric) models.SensorReading {
	s, ok := c.slots[metric]
	if !ok {
		return models.SensorReading{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reading
}

// Set atomically replaces a metric's reading. Only the owning sampler calls
// this.
func (c *Cache) Set(metric models.Metric, value float64, at time.Time, ttl time.Duration) {
	v := value
	c.store(metric, models.SensorReading{Value: &v, CapturedAt: at, TTLSeconds: ttl.Seconds()})
}

// SetUnavailable records that the metric could not be read, replacing any
// previous value with nil so the UI renders N/A rather than a frozen number.
func (c *Cache) SetUnavailable(metric models.Metric, at time.Time, ttl time.Duration) {
	c.store(metric, models.SensorReading{CapturedAt: at, TTLSeconds: ttl.Seconds()})
}

func (c *Cache) store(metric models.Metric, reading models.SensorReading) {
	s, ok := c.slots[metric]
	if !ok {
		return
	}
	s.mu.Lock()
	s.reading = reading
	s.mu.Unlock()
}

// All returns a copy of every slot's current reading. Slots are read one at
// a time under their own locks; cross-metric consistency is by design not
// guaranteed, each reading carries its own CapturedAt.
func (c *Cache) All() map[models.Metric]models.SensorReading {
	out := make(map[models.Metric]models.SensorReading, len(c.slots))
	for metric := range c.slots {
		out[metric] = c.Get(metric)
	}
	return out
}

package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"kamsent/internal/models"
	"kamsent/internal/sensors"
)

// Sampler runs one domain's polling loop. It is the sole writer for the
// cache slots and history buffers of its source's metrics. Blocking inside
// Read is fine: each sampler has its own goroutine and never runs on the
// request path.
type Sampler struct {
	source      sensors.Source
	interval    time.Duration
	ttl         time.Duration
	cache       *Cache
	history     *HistoryStore
	maxFailures int
	logger      *slog.Logger
	now         func() time.Time

	failures    int
	unavailable bool
	primed      bool

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSampler wires a source to its cache slots and history buffers. A
// reading's TTL is twice the polling interval: one missed refresh makes it
// stale.
func NewSampler(source sensors.Source, interval time.Duration, cache *Cache, history *HistoryStore, maxFailures int, logger *slog.Logger) *Sampler {
	return &Sampler{
		source:      source,
		interval:    interval,
		ttl:         2 * interval,
		cache:       cache,
		history:     history,
		maxFailures: maxFailures,
		logger:      logger.With(slog.String("domain", source.Domain())),
		now:         time.Now,
	}
}

// Prime performs one synchronous poll before the loop starts. For
// delta-based sources this consumes the warm-up pass so the first in-loop
// sample already carries a rate; for the rest it seeds the cache so
// /api/stats has data immediately.
func (s *Sampler) Prime(ctx context.Context) {
	s.poll(ctx)
	s.primed = true
}

// Start launches the polling loop. Calling Start twice is a no-op.
func (s *Sampler) Start() {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		ctx := context.Background()
		if !s.primed {
			s.poll(ctx)
		}
		for {
			select {
			case <-ticker.C:
				if s.poll(ctx) {
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for the in-flight poll to finish.
func (s *Sampler) Stop() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	s.wg.Wait()
}

// poll runs one sampling pass. It returns true when the domain has been
// declared permanently unavailable and the loop should give up rather than
// keep hammering a dead sensor path.
func (s *Sampler) poll(ctx context.Context) bool {
	sample, err := s.source.Read(ctx)
	now := s.now()

	switch {
	case errors.Is(err, sensors.ErrWarmingUp):
		// Reference pass for delta-based sources; nothing to record.
		return false
	case errors.Is(err, sensors.ErrUnsupported):
		s.markUnavailable(now, "unsupported")
		return true
	case err != nil:
		s.failures++
		s.logger.Warn("sensor read failed",
			slog.String("error", err.Error()),
			slog.Int("streak", s.failures))
		if s.failures >= s.maxFailures {
			s.markUnavailable(now, "failure streak")
			return true
		}
		// Previous cached values stay in place, stale but present.
		return false
	}

	s.failures = 0
	for _, metric := range s.source.Metrics() {
		if v, ok := sample[metric]; ok {
			s.cache.Set(metric, v, now, s.ttl)
			value := v
			s.history.Append(metric, now, &value)
		} else {
			s.cache.SetUnavailable(metric, now, s.ttl)
			s.history.Append(metric, now, nil)
		}
	}
	return false
}

func (s *Sampler) markUnavailable(at time.Time, reason string) {
	if s.unavailable {
		return
	}
	s.unavailable = true
	for _, metric := range s.source.Metrics() {
		s.cache.SetUnavailable(metric, at, s.ttl)
	}
	s.logger.Warn("domain marked unavailable", slog.String("reason", reason))
}

// Unavailable reports whether the domain gave up after repeated failures.
func (s *Sampler) Unavailable() bool { return s.unavailable }

// Metrics exposes the metric set owned by this sampler's source.
func (s *Sampler) Metrics() []models.Metric { return s.source.Metrics() }

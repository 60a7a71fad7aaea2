package monitor

import (
	"log/slog"
	"sync"
	"time"

	"kamsent/internal/models"
)

// Recorder periodically takes a facade snapshot and hands it to its sinks
// (session log writer, websocket broadcast). It runs on the dashboard poll
// cadence, independent of the per-domain samplers.
type Recorder struct {
	facade   *Facade
	interval time.Duration
	sinks    []func(models.StatsSnapshot)
	logger   *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewRecorder builds a recorder; sinks must be fast and non-blocking.
func NewRecorder(facade *Facade, interval time.Duration, logger *slog.Logger, sinks ...func(models.StatsSnapshot)) *Recorder {
	return &Recorder{facade: facade, interval: interval, sinks: sinks, logger: logger}
}

// Start launches the recording loop. Calling Start twice is a no-op.
func (r *Recorder) Start() {
	r.mu.Lock()
	if r.stop != nil {
		r.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	r.stop = stop
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				snap := r.facade.Snapshot()
				for _, sink := range r.sinks {
					sink(snap)
				}
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for the in-flight tick to finish.
func (r *Recorder) Stop() {
	r.mu.Lock()
	stop := r.stop
	r.stop = nil
	r.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	r.wg.Wait()
}

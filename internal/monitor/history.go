package monitor

import (
	"sync"
	"time"

	"kamsent/internal/models"
)

// ring is one metric's fixed-capacity rolling window. Append is the only
// mutation; the oldest point is shifted out silently on overflow.
type ring struct {
	mu     sync.RWMutex
	points []models.HistoryPoint
	cap    int
}

func (r *ring) push(p models.HistoryPoint) {
	r.mu.Lock()
	if len(r.points) >= r.cap {
		copy(r.points, r.points[1:])
		r.points[len(r.points)-1] = p
	} else {
		r.points = append(r.points, p)
	}
	r.mu.Unlock()
}

func (r *ring) snapshot() []models.HistoryPoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.HistoryPoint, len(r.points))
	copy(out, r.points)
	return out
}

// HistoryStore keeps a rolling window of recent samples per metric, used for
// charts and sustained-load detection. Each metric's buffer has its own lock
// and is appended to only by the sampler owning that metric.
type HistoryStore struct {
	capacity int
	buffers  map[models.Metric]*ring
}

// NewHistoryStore creates buffers of the given capacity for every metric.
func NewHistoryStore(capacity int, metrics []models.Metric) *HistoryStore {
	buffers := make(map[models.Metric]*ring, len(metrics))
	for _, m := range metrics {
		buffers[m] = &ring{cap: capacity, points: make([]models.HistoryPoint, 0, capacity)}
	}
	return &HistoryStore{capacity: capacity, buffers: buffers}
}

// Capacity returns the fixed per-metric window size.
func (h *HistoryStore) Capacity() int { return h.capacity }

// Append adds a sample to the metric's window. A nil value records a gap for
// an unavailable sensor so chart timestamps stay aligned.
func (h *HistoryStore) Append(metric models.Metric, at time.Time, value *float64) {
	buf, ok := h.buffers[metric]
	if !ok {
		return
	}
	var v *float64
	if value != nil {
		copied := *value
		v = &copied
	}
	buf.push(models.HistoryPoint{At: at, Value: v})
}

// Snapshot returns a copy of the metric's window, oldest first. Callers can
// hold it as long as they like without observing later appends.
func (h *HistoryStore) Snapshot(metric models.Metric) []models.HistoryPoint {
	buf, ok := h.buffers[metric]
	if !ok {
		return nil
	}
	return buf.snapshot()
}

// SnapshotAll copies every metric's window in one pass.
func (h *HistoryStore) SnapshotAll() map[models.Metric][]models.HistoryPoint {
	out := make(map[models.Metric][]models.HistoryPoint, len(h.buffers))
	for metric, buf := range h.buffers {
		out[metric] = buf.snapshot()
	}
	return out
}

package sensors

import (
	"context"
	"fmt"
	"time"

	gnet "github.com/shirou/gopsutil/v4/net"

	"kamsent/internal/models"
)

// NetworkSource reports upload/download throughput in KB/s computed from
// cumulative interface counters summed across all interfaces. The very first
// read only establishes the delta reference and returns ErrWarmingUp so a
// spurious since-boot spike never reaches the dashboard.
type NetworkSource struct {
	counters func(ctx context.Context) (recv, sent uint64, err error)
	now      func() time.Time

	prevRecv uint64
	prevSent uint64
	prevAt   time.Time
	primed   bool
}

// NewNetworkSource constructs the throughput source backed by gopsutil.
func NewNetworkSource() *NetworkSource {
	return &NetworkSource{counters: readIOCounters, now: time.Now}
}

// newNetworkSourceForTest injects fake counters and a fake clock.
func newNetworkSourceForTest(counters func(context.Context) (uint64, uint64, error), now func() time.Time) *NetworkSource {
	return &NetworkSource{counters: counters, now: now}
}

func readIOCounters(ctx context.Context) (uint64, uint64, error) {
	stats, err := gnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return 0, 0, err
	}
	var recv, sent uint64
	for _, ctr := range stats {
		recv += ctr.BytesRecv
		sent += ctr.BytesSent
	}
	return recv, sent, nil
}

// Domain implements Source.
func (s *NetworkSource) Domain() string { return DomainNetwork }

// Metrics implements Source.
func (s *NetworkSource) Metrics() []models.Metric {
	return []models.Metric{models.MetricNetDown, models.MetricNetUp}
}

// Read implements Source.
func (s *NetworkSource) Read(ctx context.Context) (Sample, error) {
	recv, sent, err := s.counters(ctx)
	if err != nil {
		return nil, fmt.Errorf("network: read counters: %w", err)
	}
	now := s.now()

	if !s.primed || recv < s.prevRecv || sent < s.prevSent {
		// First sample, or a counter reset (interface bounce): re-prime.
		s.prevRecv, s.prevSent, s.prevAt = recv, sent, now
		s.primed = true
		return nil, ErrWarmingUp
	}

	elapsed := now.Sub(s.prevAt).Seconds()
	if elapsed <= 0 {
		elapsed = 0.001
	}
	down := float64(recv-s.prevRecv) / elapsed / 1024
	up := float64(sent-s.prevSent) / elapsed / 1024
	s.prevRecv, s.prevSent, s.prevAt = recv, sent, now

	return Sample{
		models.MetricNetDown: down,
		models.MetricNetUp:   up,
	}, nil
}

package sensors

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"kamsent/internal/models"
)

// CPUSource samples CPU utilization via cumulative time deltas, the current
// clock frequency, and RAM usage. All three are cheap native calls, so they
// share the fastest cadence. State is owned by the single sampler goroutine
// that calls Read; no locking is needed.
type CPUSource struct {
	lastTotal float64
	lastIdle  float64
	hasPrev   bool
}

// NewCPUSource constructs the CPU/RAM source.
func NewCPUSource() *CPUSource {
	return &CPUSource{}
}

// Domain implements Source.
func (s *CPUSource) Domain() string { return DomainCPU }

// Metrics implements Source.
func (s *CPUSource) Metrics() []models.Metric {
	return []models.Metric{models.MetricCPUUsage, models.MetricCPUFreq, models.MetricRAMUsage}
}

// Read implements Source. The first call only records the reference counters
// and returns ErrWarmingUp: a utilization percentage needs two samples.
func (s *CPUSource) Read(ctx context.Context) (Sample, error) {
	timesStats, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("cpu: read times: %w", err)
	}
	if len(timesStats) == 0 {
		return nil, fmt.Errorf("cpu: no aggregate times reported")
	}
	total := cpuTotal(timesStats[0])
	idle := timesStats[0].Idle + timesStats[0].Iowait

	deltaTotal := total - s.lastTotal
	deltaIdle := idle - s.lastIdle
	hadPrev := s.hasPrev
	s.lastTotal = total
	s.lastIdle = idle
	s.hasPrev = true
	if !hadPrev {
		return nil, ErrWarmingUp
	}

	sample := Sample{}
	if deltaTotal > 0 {
		used := deltaTotal - deltaIdle
		if used < 0 {
			used = 0
		}
		sample[models.MetricCPUUsage] = clampPercent((used / deltaTotal) * 100)
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 && infos[0].Mhz > 0 {
		sample[models.MetricCPUFreq] = infos[0].Mhz / 1000
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		sample[models.MetricRAMUsage] = clampPercent(vm.UsedPercent)
	}

	return sample, nil
}

func cpuTotal(stat cpu.TimesStat) float64 {
	return stat.User + stat.System + stat.Nice + stat.Idle + stat.Iowait +
		stat.Irq + stat.Softirq + stat.Steal + stat.Guest + stat.GuestNice
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

package warnings

import (
	"fmt"
	"sync"
	"time"

	"kamsent/internal/models"
)

// EngineConfig tunes the window-based rules and the debounce behavior.
// One consistent constant set per deployment; loaded from configuration.
type EngineConfig struct {
	// SustainedWindow is the trailing sample count examined for sustained
	// CPU/GPU load.
	SustainedWindow int
	// SustainedRatio is the fraction of the window that must breach before
	// a sustained warning fires (strictly greater than).
	SustainedRatio float64
	// SpikeMultiplier flags download throughput above N times the rolling
	// baseline mean.
	SpikeMultiplier float64
	// BaselineSamples is the trailing window for the network baseline,
	// excluding the current sample.
	BaselineSamples int
	// MinBaselineKBps suppresses spike detection on near-idle links.
	MinBaselineKBps float64
	// GraceWindow keeps a warning active until its condition has been
	// absent for this long, so boundary oscillation doesn't flicker.
	GraceWindow time.Duration
}

// warningState is the per-rule debounce record. The engine owns these
// exclusively; evaluation only reads cache/history snapshots.
type warningState struct {
	active     bool
	firstSince time.Time
	lastBreach time.Time
	event      models.WarningEvent
}

// Engine evaluates snapshots against a threshold profile. Apart from the
// debounce state it is a pure function of its inputs; the clock is
// injectable so tests can walk time deterministically.
type Engine struct {
	cfg EngineConfig
	now func() time.Time

	mu     sync.Mutex
	states map[string]*warningState
}

// ruleOrder fixes the output ordering so responses are stable.
var ruleOrder = []string{
	"cpu_temp", "gpu_temp", "cpu_voltage", "ram",
	"cpu_sustain", "gpu_sustain", "net_spike",
}

// NewEngine creates a warning engine with the given tuning.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg, now: time.Now, states: make(map[string]*warningState)}
}

// NewEngineWithClock is NewEngine with an injected clock for tests.
func NewEngineWithClock(cfg EngineConfig, now func() time.Time) *Engine {
	e := NewEngine(cfg)
	e.now = now
	return e
}

// Evaluate derives the active warning set from the given cache and history
// snapshots. Unavailable (nil) readings never trigger a warning: they mean
// "cannot evaluate", not "breach". For each rule, critical supersedes warn;
// the two are never reported together.
func (e *Engine) Evaluate(metrics map[models.Metric]models.SensorReading, history map[models.Metric][]models.HistoryPoint, profile ThresholdProfile) []models.WarningEvent {
	candidates := map[string]*models.WarningEvent{
		"cpu_temp": highWaterRule("cpu_temp", "CPU", "CPU temperature", "°C",
			value(metrics, models.MetricCPUTemp), profile.CPU.TempWarn, profile.CPU.TempCrit),
		"gpu_temp": highWaterRule("gpu_temp", "GPU", "GPU temperature", "°C",
			value(metrics, models.MetricGPUTemp), profile.GPU.TempWarn, profile.GPU.TempCrit),
		"cpu_voltage": voltageRule(value(metrics, models.MetricCPUVoltage), profile.CPU),
		"ram": highWaterRule("ram", "RAM", "RAM usage", "%",
			value(metrics, models.MetricRAMUsage), profile.RAM.UsageWarn, profile.RAM.UsageCrit),
		"cpu_sustain": e.sustainedRule("cpu_sustain", "CPU",
			history[models.MetricCPUUsage], profile.CPU.UsageWarn, profile.CPU.UsageCrit),
		"gpu_sustain": e.sustainedRule("gpu_sustain", "GPU",
			history[models.MetricGPUUsage], profile.GPU.UsageWarn, profile.GPU.UsageCrit),
		"net_spike": e.spikeRule(value(metrics, models.MetricNetDown), history[models.MetricNetDown]),
	}

	now := e.now()
	var out []models.WarningEvent

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, key := range ruleOrder {
		st, ok := e.states[key]
		if !ok {
			st = &warningState{}
			e.states[key] = st
		}

		if cand := candidates[key]; cand != nil {
			if !st.active {
				st.active = true
				st.firstSince = now
			}
			// A re-breach inside the grace window continues the original
			// activation; the debounce clock never resets while active.
			cand.Since = st.firstSince
			st.event = *cand
			st.lastBreach = now
		} else if st.active && now.Sub(st.lastBreach) >= e.cfg.GraceWindow {
			st.active = false
			st.event = models.WarningEvent{}
		}

		if st.active {
			out = append(out, st.event)
		}
	}
	return out
}

// value unwraps a cached reading, returning nil when the sensor is
// unavailable.
func value(metrics map[models.Metric]models.SensorReading, metric models.Metric) *float64 {
	return metrics[metric].Value
}

// highWaterRule handles instantaneous upper-bound breaches.
func highWaterRule(id, component, label, unit string, v *float64, warn, crit float64) *models.WarningEvent {
	if v == nil {
		return nil
	}
	switch {
	case *v >= crit:
		return &models.WarningEvent{
			ID:        id + "_crit",
			Level:     models.WarningLevelCritical,
			Component: component,
			Message:   fmt.Sprintf("%s critical: %.1f%s (limit: %.1f%s)", label, *v, unit, crit, unit),
			Value:     *v,
			Threshold: crit,
		}
	case *v >= warn:
		return &models.WarningEvent{
			ID:        id + "_warn",
			Level:     models.WarningLevelWarning,
			Component: component,
			Message:   fmt.Sprintf("%s elevated: %.1f%s (warn: %.1f%s)", label, *v, unit, warn, unit),
			Value:     *v,
			Threshold: warn,
		}
	}
	return nil
}

// voltageRule is two-sided: over-volt is critical, under-volt a warning.
func voltageRule(v *float64, cpu CPUThresholds) *models.WarningEvent {
	if v == nil {
		return nil
	}
	switch {
	case *v > cpu.VoltMax:
		return &models.WarningEvent{
			ID:        "cpu_volt_high",
			Level:     models.WarningLevelCritical,
			Component: "CPU Voltage",
			Message:   fmt.Sprintf("CPU voltage too high: %.3fV (max safe: %.2fV)", *v, cpu.VoltMax),
			Value:     *v,
			Threshold: cpu.VoltMax,
		}
	case *v < cpu.VoltMin:
		return &models.WarningEvent{
			ID:        "cpu_volt_low",
			Level:     models.WarningLevelWarning,
			Component: "CPU Voltage",
			Message:   fmt.Sprintf("CPU voltage low: %.3fV (min: %.2fV)", *v, cpu.VoltMin),
			Value:     *v,
			Threshold: cpu.VoltMin,
		}
	}
	return nil
}

// sustainedRule fires when more than SustainedRatio of the trailing window
// sits above the load threshold. A single spiky sample cannot trip it, and
// the window must be full before it applies at all.
func (e *Engine) sustainedRule(id, component string, points []models.HistoryPoint, warn, crit float64) *models.WarningEvent {
	window := e.cfg.SustainedWindow
	if len(points) < window {
		return nil
	}
	tail := points[len(points)-window:]

	var aboveWarn, aboveCrit, present int
	var sum float64
	for _, p := range tail {
		if p.Value == nil {
			continue
		}
		present++
		sum += *p.Value
		if *p.Value >= warn {
			aboveWarn++
		}
		if *p.Value >= crit {
			aboveCrit++
		}
	}
	if present < window {
		return nil
	}
	avg := sum / float64(present)

	total := float64(window)
	if float64(aboveCrit)/total > e.cfg.SustainedRatio {
		return &models.WarningEvent{
			ID:        id + "_crit",
			Level:     models.WarningLevelCritical,
			Component: component,
			Message:   fmt.Sprintf("%s sustained at %.0f%% across recent samples", component, avg),
			Value:     avg,
			Threshold: crit,
		}
	}
	if float64(aboveWarn)/total > e.cfg.SustainedRatio {
		return &models.WarningEvent{
			ID:        id + "_warn",
			Level:     models.WarningLevelWarning,
			Component: component,
			Message:   fmt.Sprintf("%s sustained high usage: %.0f%% across recent samples", component, avg),
			Value:     avg,
			Threshold: warn,
		}
	}
	return nil
}

// spikeRule compares the current download rate to the rolling baseline mean
// computed from trailing samples excluding the current one.
func (e *Engine) spikeRule(current *float64, points []models.HistoryPoint) *models.WarningEvent {
	if current == nil {
		return nil
	}
	// Drop the newest point: it is the sample under evaluation.
	if n := len(points); n > 0 {
		points = points[:n-1]
	}
	need := e.cfg.BaselineSamples
	if need <= 0 || len(points) < need {
		return nil
	}

	var sum float64
	var count int
	for i := len(points) - 1; i >= 0 && count < need; i-- {
		if points[i].Value == nil {
			continue
		}
		sum += *points[i].Value
		count++
	}
	if count < need {
		return nil
	}
	baseline := sum / float64(count)
	if baseline <= e.cfg.MinBaselineKBps {
		return nil
	}

	limit := baseline * e.cfg.SpikeMultiplier
	if *current > limit {
		return &models.WarningEvent{
			ID:        "net_spike",
			Level:     models.WarningLevelWarning,
			Component: "Network",
			Message:   fmt.Sprintf("Network spike: %.1f KB/s (%.0fx above baseline %.1f KB/s)", *current, e.cfg.SpikeMultiplier, baseline),
			Value:     *current,
			Threshold: limit,
		}
	}
	return nil
}

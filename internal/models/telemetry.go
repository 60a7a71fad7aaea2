package models

import "time"

// Metric identifies one charted/alerted measurement series.
type Metric string

const (
	MetricCPUUsage   Metric = "cpu_usage"
	MetricCPUFreq    Metric = "cpu_freq_ghz"
	MetricCPUTemp    Metric = "cpu_temp"
	MetricCPUVoltage Metric = "cpu_voltage"
	MetricRAMUsage   Metric = "ram_usage"
	MetricGPUUsage   Metric = "gpu_usage"
	MetricGPUTemp    Metric = "gpu_temp"
	MetricGPUVRAM    Metric = "gpu_vram_used_mb"
	MetricNetDown    Metric = "net_down_kbps"
	MetricNetUp      Metric = "net_up_kbps"
)

// AllMetrics lists every metric the cache and history track. Order matters
// only for stable JSON output in tests.
func AllMetrics() []Metric {
	return []Metric{
		MetricCPUUsage, MetricCPUFreq, MetricCPUTemp, MetricCPUVoltage,
		MetricRAMUsage, MetricGPUUsage, MetricGPUTemp, MetricGPUVRAM,
		MetricNetDown, MetricNetUp,
	}
}

// SensorReading is the cached value for one metric. A nil Value means the
// sensor is not available on this host and must render as N/A, never as zero.
// Staleness is observable through CapturedAt; readings are returned even when
// older than their TTL.
type SensorReading struct {
	Value      *float64  `json:"value"`
	CapturedAt time.Time `json:"captured_at"`
	TTLSeconds float64   `json:"ttl_seconds"`
}

// Stale reports whether the reading is older than its TTL at the given time.
func (r SensorReading) Stale(now time.Time) bool {
	if r.CapturedAt.IsZero() {
		return true
	}
	return now.Sub(r.CapturedAt).Seconds() > r.TTLSeconds
}

// HistoryPoint is one sample in a metric's rolling history window.
// Value stays nil for samples taken while the sensor was unavailable so
// chart gaps line up with the shared timestamp axis.
type HistoryPoint struct {
	At    time.Time `json:"at"`
	Value *float64  `json:"value"`
}

// WarningLevel orders warning severities; critical supersedes warning for
// the same metric.
type WarningLevel string

const (
	WarningLevelWarning  WarningLevel = "warning"
	WarningLevelCritical WarningLevel = "critical"
)

// WarningEvent is one active alert derived from cached telemetry.
type WarningEvent struct {
	ID        string       `json:"id"`
	Level     WarningLevel `json:"level"`
	Component string       `json:"component"`
	Message   string       `json:"message"`
	Value     float64      `json:"value"`
	Threshold float64      `json:"threshold"`
	Since     time.Time    `json:"since"`
}

// StatsSnapshot is the read-only view assembled per request: latest cached
// readings, rolling history, and the warnings evaluated against exactly
// those readings.
type StatsSnapshot struct {
	Metrics   map[Metric]SensorReading  `json:"metrics"`
	History   map[Metric][]HistoryPoint `json:"history"`
	Warnings  []WarningEvent            `json:"warnings"`
	Timestamp time.Time                 `json:"timestamp"`
}

// Package config loads the kamsent configuration from an optional YAML file
// with environment variable overrides. All tunables have defaults so the
// dashboard runs with no config file at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	envPort     = "KAMSENT_PORT"
	envHost     = "KAMSENT_HOST"
	envDataDir  = "KAMSENT_DATA_DIR"
	envLogLevel = "KAMSENT_LOG_LEVEL"
)

// Sampling holds the per-domain polling cadences and cache tuning. Each
// sensor domain runs on its own loop, so a slow cadence on one domain never
// affects another.
type Sampling struct {
	CPUInterval     time.Duration `yaml:"cpu_interval"`
	GPUInterval     time.Duration `yaml:"gpu_interval"`
	ThermalInterval time.Duration `yaml:"thermal_interval"`
	NetworkInterval time.Duration `yaml:"network_interval"`
	HistorySize     int           `yaml:"history_size"`
	// MaxFailureStreak is how many consecutive read failures a domain may
	// accumulate before it is marked permanently unavailable (N/A).
	MaxFailureStreak int `yaml:"max_failure_streak"`
}

// Warnings holds the tunables for the warning engine.
type Warnings struct {
	// SustainedWindow is the number of trailing samples examined for
	// sustained CPU/GPU load.
	SustainedWindow int `yaml:"sustained_window"`
	// SustainedRatio is the fraction of the window that must exceed the
	// load threshold before a sustained warning fires.
	SustainedRatio float64 `yaml:"sustained_ratio"`
	// SpikeMultiplier flags network throughput above N times the rolling
	// baseline average.
	SpikeMultiplier float64 `yaml:"spike_multiplier"`
	// BaselineSamples is the trailing window used for the network baseline.
	BaselineSamples int `yaml:"baseline_samples"`
	// MinBaselineKBps suppresses spike detection on a near-idle link where
	// any traffic at all would look like a spike.
	MinBaselineKBps float64 `yaml:"min_baseline_kbps"`
	// GraceWindow is how long a warning stays active after its condition
	// last held, to stop banner flicker around the boundary.
	GraceWindow time.Duration `yaml:"grace_window"`
}

// SessionLog tunes the line-delimited session record writer.
type SessionLog struct {
	BatchSize int `yaml:"batch_size"`
	MaxLines  int `yaml:"max_lines"`
}

// Config is the full runtime configuration.
type Config struct {
	Host       string     `yaml:"host"`
	Port       int        `yaml:"port"`
	DataDir    string     `yaml:"data_dir"`
	LogLevel   string     `yaml:"log_level"`
	Sampling   Sampling   `yaml:"sampling"`
	Warnings   Warnings   `yaml:"warnings"`
	SessionLog SessionLog `yaml:"session_log"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	return Config{
		Host:     "0.0.0.0",
		Port:     5000,
		DataDir:  ".",
		LogLevel: "info",
		Sampling: Sampling{
			CPUInterval:      time.Second,
			GPUInterval:      5 * time.Second,
			ThermalInterval:  10 * time.Second,
			NetworkInterval:  4500 * time.Millisecond,
			HistorySize:      60,
			MaxFailureStreak: 5,
		},
		Warnings: Warnings{
			SustainedWindow: 6,
			SustainedRatio:  0.8,
			SpikeMultiplier: 5.0,
			BaselineSamples: 12,
			MinBaselineKBps: 10,
			GraceWindow:     60 * time.Second,
		},
		SessionLog: SessionLog{
			BatchSize: 10,
			MaxLines:  5000,
		},
	}
}

// Load reads the YAML file at path (if it exists) over the defaults and then
// applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv(envHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(envDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate rejects configurations that would break invariants elsewhere
// (zero-capacity history, non-positive cadences, out-of-range ratios).
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.Sampling.HistorySize <= 0 {
		return fmt.Errorf("config: history_size must be positive, got %d", c.Sampling.HistorySize)
	}
	if c.Sampling.MaxFailureStreak <= 0 {
		return fmt.Errorf("config: max_failure_streak must be positive, got %d", c.Sampling.MaxFailureStreak)
	}
	for name, d := range map[string]time.Duration{
		"cpu_interval":     c.Sampling.CPUInterval,
		"gpu_interval":     c.Sampling.GPUInterval,
		"thermal_interval": c.Sampling.ThermalInterval,
		"network_interval": c.Sampling.NetworkInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", name, d)
		}
	}
	if c.Warnings.SustainedRatio <= 0 || c.Warnings.SustainedRatio > 1 {
		return fmt.Errorf("config: sustained_ratio must be in (0,1], got %v", c.Warnings.SustainedRatio)
	}
	if c.Warnings.SustainedWindow <= 0 {
		return fmt.Errorf("config: sustained_window must be positive, got %d", c.Warnings.SustainedWindow)
	}
	if c.Warnings.SpikeMultiplier <= 1 {
		return fmt.Errorf("config: spike_multiplier must exceed 1, got %v", c.Warnings.SpikeMultiplier)
	}
	if c.Warnings.BaselineSamples <= 0 {
		return fmt.Errorf("config: baseline_samples must be positive, got %d", c.Warnings.BaselineSamples)
	}
	if c.Warnings.GraceWindow < 0 {
		return fmt.Errorf("config: grace_window must not be negative, got %s", c.Warnings.GraceWindow)
	}
	if c.SessionLog.BatchSize <= 0 {
		return fmt.Errorf("config: session_log batch_size must be positive, got %d", c.SessionLog.BatchSize)
	}
	return nil
}

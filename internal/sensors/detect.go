package sensors

import (
	"log/slog"
)

// Detect probes the host once and returns the set of usable sources.
// Domains without a usable source simply never get a sampler; their cache
// slots stay at nil and render as N/A. Selection happens here, at startup,
// not per poll.
func Detect(logger *slog.Logger) []Source {
	sources := []Source{
		NewCPUSource(),
		NewNetworkSource(),
		NewThermalSource(),
	}

	if gpu, ok := DetectNvidiaSMI(); ok {
		sources = append(sources, gpu)
	} else {
		logger.Info("gpu stats unavailable", slog.String("reason", "nvidia-smi not found"))
	}

	if volt, ok := NewVoltageSource(); ok {
		sources = append(sources, volt)
	} else {
		logger.Info("cpu voltage unavailable", slog.String("reason", "no supported voltage interface"))
	}

	return sources
}

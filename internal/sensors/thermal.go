package sensors

import (
	"context"
	"fmt"

	gsensors "github.com/shirou/gopsutil/v4/sensors"

	"kamsent/internal/models"
)

// ThermalSource reads the CPU package temperature. It tries the native
// sensor enumeration first and falls back to a platform-specific path
// (WMI thermal zones on Windows). Hosts exposing neither keep failing and
// the sampler eventually marks the domain unavailable.
type ThermalSource struct{}

// NewThermalSource constructs the temperature source.
func NewThermalSource() *ThermalSource {
	return &ThermalSource{}
}

// Domain implements Source.
func (s *ThermalSource) Domain() string { return DomainThermal }

// Metrics implements Source.
func (s *ThermalSource) Metrics() []models.Metric {
	return []models.Metric{models.MetricCPUTemp}
}

// Read implements Source.
func (s *ThermalSource) Read(ctx context.Context) (Sample, error) {
	temps, err := gsensors.TemperaturesWithContext(ctx)
	if err == nil {
		for _, entry := range temps {
			// Sanity window filters bogus zone readings.
			if entry.Temperature > 0 && entry.Temperature < 120 {
				return Sample{models.MetricCPUTemp: entry.Temperature}, nil
			}
		}
	}
	if temp, ok := platformCPUTemp(ctx); ok {
		return Sample{models.MetricCPUTemp: temp}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("thermal: enumerate sensors: %w", err)
	}
	return nil, fmt.Errorf("thermal: no usable temperature sensor")
}

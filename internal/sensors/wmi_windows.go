//go:build windows

package sensors

import (
	"context"
	"fmt"

	"github.com/StackExchange/wmi"

	"kamsent/internal/models"
)

// Struct names must match the WMI class names; wmi.CreateQuery derives the
// FROM clause from the type name.

type MSAcpi_ThermalZoneTemperature struct {
	CurrentTemperature uint32
}

type Win32_Processor struct {
	CurrentVoltage uint16
}

// platformCPUTemp queries the ACPI thermal zone when the native sensor
// enumeration comes up empty. WMI COM calls are slow (50-200ms), which is
// fine inside the thermal domain's own 10s loop.
func platformCPUTemp(_ context.Context) (float64, bool) {
	var zones []MSAcpi_ThermalZoneTemperature
	q := wmi.CreateQuery(&zones, "")
	if err := wmi.QueryNamespace(q, &zones, `root\wmi`); err != nil {
		return 0, false
	}
	for _, z := range zones {
		// Tenths of Kelvin.
		c := float64(z.CurrentTemperature)/10.0 - 273.15
		if c > 0 && c < 120 {
			return c, true
		}
	}
	return 0, false
}

// VoltageSource reads the CPU core voltage via Win32_Processor.
type VoltageSource struct{}

// NewVoltageSource probes for a usable voltage path. On Windows a single
// test query decides availability.
func NewVoltageSource() (*VoltageSource, bool) {
	var procs []Win32_Processor
	if err := wmi.Query(wmi.CreateQuery(&procs, ""), &procs); err != nil || len(procs) == 0 {
		return nil, false
	}
	return &VoltageSource{}, true
}

// Domain implements Source.
func (s *VoltageSource) Domain() string { return DomainVoltage }

// Metrics implements Source.
func (s *VoltageSource) Metrics() []models.Metric {
	return []models.Metric{models.MetricCPUVoltage}
}

// Read implements Source.
func (s *VoltageSource) Read(_ context.Context) (Sample, error) {
	var procs []Win32_Processor
	if err := wmi.Query(wmi.CreateQuery(&procs, ""), &procs); err != nil {
		return nil, fmt.Errorf("voltage: query Win32_Processor: %w", err)
	}
	for _, p := range procs {
		if p.CurrentVoltage == 0 {
			continue
		}
		// Bit 7 set means the low 7 bits carry the voltage directly in
		// tenths of a volt; otherwise the whole value does.
		if p.CurrentVoltage&0x80 != 0 {
			return Sample{models.MetricCPUVoltage: float64(p.CurrentVoltage&0x7f) / 10.0}, nil
		}
		return Sample{models.MetricCPUVoltage: float64(p.CurrentVoltage) / 10.0}, nil
	}
	return nil, fmt.Errorf("voltage: no processor reported a voltage")
}

//go:build !windows

package sensors

import (
	"context"

	"kamsent/internal/models"
)

// platformCPUTemp has no fallback path outside Windows; the native sensor
// enumeration is the only source.
func platformCPUTemp(_ context.Context) (float64, bool) {
	return 0, false
}

// VoltageSource is only implemented via WMI; see wmi_windows.go.
type VoltageSource struct{}

// NewVoltageSource reports the voltage domain as unsupported on this
// platform. The cache keeps a nil reading so the UI renders N/A.
func NewVoltageSource() (*VoltageSource, bool) {
	return nil, false
}

// Domain implements Source.
func (s *VoltageSource) Domain() string { return DomainVoltage }

// Metrics implements Source.
func (s *VoltageSource) Metrics() []models.Metric {
	return []models.Metric{models.MetricCPUVoltage}
}

// Read implements Source.
func (s *VoltageSource) Read(_ context.Context) (Sample, error) {
	return nil, ErrUnsupported
}

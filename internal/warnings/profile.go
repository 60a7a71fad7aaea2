// Package warnings holds the hardware-aware threshold profile and the engine
// that derives alert events from cached telemetry.
package warnings

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CPUThresholds bounds CPU temperature, voltage, and sustained utilization.
type CPUThresholds struct {
	TempWarn  float64 `json:"temp_warn" yaml:"temp_warn" validate:"gt=0"`
	TempCrit  float64 `json:"temp_crit" yaml:"temp_crit" validate:"gt=0,gtefield=TempWarn"`
	VoltMin   float64 `json:"volt_min" yaml:"volt_min" validate:"gte=0"`
	VoltMax   float64 `json:"volt_max" yaml:"volt_max" validate:"gt=0,gtefield=VoltMin"`
	UsageWarn float64 `json:"usage_warn" yaml:"usage_warn" validate:"gt=0,lte=100"`
	UsageCrit float64 `json:"usage_crit" yaml:"usage_crit" validate:"gt=0,lte=100,gtefield=UsageWarn"`
}

// GPUThresholds bounds GPU temperature and sustained utilization.
type GPUThresholds struct {
	TempWarn  float64 `json:"temp_warn" yaml:"temp_warn" validate:"gt=0"`
	TempCrit  float64 `json:"temp_crit" yaml:"temp_crit" validate:"gt=0,gtefield=TempWarn"`
	UsageWarn float64 `json:"usage_warn" yaml:"usage_warn" validate:"gt=0,lte=100"`
	UsageCrit float64 `json:"usage_crit" yaml:"usage_crit" validate:"gt=0,lte=100,gtefield=UsageWarn"`
}

// RAMThresholds bounds instantaneous memory usage.
type RAMThresholds struct {
	UsageWarn float64 `json:"usage_warn" yaml:"usage_warn" validate:"gt=0,lte=100"`
	UsageCrit float64 `json:"usage_crit" yaml:"usage_crit" validate:"gt=0,lte=100,gtefield=UsageWarn"`
}

// DetectedFrom records the hardware names the defaults were derived from,
// for display next to the threshold editor.
type DetectedFrom struct {
	CPU string `json:"cpu" yaml:"cpu"`
	GPU string `json:"gpu" yaml:"gpu"`
}

// ThresholdProfile is the complete per-host warning configuration. Immutable
// for a session except through Store.Replace and Store.Reset, which apply
// all-or-nothing.
type ThresholdProfile struct {
	CPU          CPUThresholds `json:"cpu" yaml:"cpu"`
	GPU          GPUThresholds `json:"gpu" yaml:"gpu"`
	RAM          RAMThresholds `json:"ram" yaml:"ram"`
	DetectedFrom DetectedFrom  `json:"detected_from" yaml:"detected_from"`
}

// Validate rejects profiles with non-positive bounds or a warn bound above
// its critical bound. A profile that fails here is never applied, even
// partially.
func (p ThresholdProfile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	return nil
}

package warnings

import "strings"

// thermalLimits are per-model safe operating bounds keyed by a lowercase
// substring of the marketing name.
type thermalLimits struct {
	tempWarn float64
	tempCrit float64
	voltMin  float64
	voltMax  float64
}

// Known CPU thermal limits (TJmax-derived).
var cpuThermalMap = map[string]thermalLimits{
	// AMD Ryzen 5000 series
	"ryzen 7 5800x": {tempWarn: 75, tempCrit: 90, voltMin: 0.9, voltMax: 1.45},
	"ryzen 9 5900x": {tempWarn: 75, tempCrit: 90, voltMin: 0.9, voltMax: 1.45},
	"ryzen 9 5950x": {tempWarn: 75, tempCrit: 90, voltMin: 0.9, voltMax: 1.45},
	"ryzen 5 5600x": {tempWarn: 75, tempCrit: 90, voltMin: 0.9, voltMax: 1.45},
	// AMD Ryzen 7000 series
	"ryzen 9 7950x": {tempWarn: 85, tempCrit: 95, voltMin: 0.9, voltMax: 1.35},
	"ryzen 9 7900x": {tempWarn: 85, tempCrit: 95, voltMin: 0.9, voltMax: 1.35},
	"ryzen 7 7700x": {tempWarn: 85, tempCrit: 95, voltMin: 0.9, voltMax: 1.35},
	// AMD Ryzen 3000 series
	"ryzen 9 3900x": {tempWarn: 70, tempCrit: 85, voltMin: 0.9, voltMax: 1.45},
	"ryzen 7 3700x": {tempWarn: 70, tempCrit: 85, voltMin: 0.9, voltMax: 1.45},
	// Intel 12th/13th gen
	"i9-13900": {tempWarn: 90, tempCrit: 100, voltMin: 0.9, voltMax: 1.52},
	"i9-12900": {tempWarn: 85, tempCrit: 100, voltMin: 0.9, voltMax: 1.52},
	"i7-13700": {tempWarn: 85, tempCrit: 100, voltMin: 0.9, voltMax: 1.52},
	"i7-12700": {tempWarn: 80, tempCrit: 100, voltMin: 0.9, voltMax: 1.52},
	"i5-13600": {tempWarn: 80, tempCrit: 100, voltMin: 0.9, voltMax: 1.52},
	// Intel 10th/11th gen
	"i9-10900": {tempWarn: 80, tempCrit: 100, voltMin: 0.9, voltMax: 1.52},
	"i7-10700": {tempWarn: 80, tempCrit: 100, voltMin: 0.9, voltMax: 1.52},
}

// Known GPU thermal limits.
var gpuThermalMap = map[string]thermalLimits{
	// NVIDIA RTX 4000 series
	"rtx 4090": {tempWarn: 80, tempCrit: 90},
	"rtx 4080": {tempWarn: 80, tempCrit: 90},
	"rtx 4070": {tempWarn: 80, tempCrit: 90},
	"rtx 4060": {tempWarn: 80, tempCrit: 90},
	// NVIDIA RTX 3000 series
	"rtx 3090": {tempWarn: 80, tempCrit: 93},
	"rtx 3080": {tempWarn: 80, tempCrit: 93},
	"rtx 3070": {tempWarn: 80, tempCrit: 93},
	"rtx 3060": {tempWarn: 80, tempCrit: 93},
	// NVIDIA RTX 2000 series
	"rtx 2080": {tempWarn: 80, tempCrit: 94},
	"rtx 2070": {tempWarn: 80, tempCrit: 94},
	"rtx 2060": {tempWarn: 80, tempCrit: 94},
	// AMD RX 6000 series
	"rx 6900": {tempWarn: 80, tempCrit: 110},
	"rx 6800": {tempWarn: 80, tempCrit: 110},
	"rx 6700": {tempWarn: 80, tempCrit: 110},
	"rx 6600": {tempWarn: 80, tempCrit: 110},
	// AMD RX 7000 series
	"rx 7900": {tempWarn: 80, tempCrit: 110},
	"rx 7800": {tempWarn: 80, tempCrit: 110},
	"rx 7700": {tempWarn: 80, tempCrit: 110},
}

// defaultProfile is the generic fallback for unrecognized hardware.
func defaultProfile() ThresholdProfile {
	return ThresholdProfile{
		CPU: CPUThresholds{
			TempWarn:  75,
			TempCrit:  90,
			VoltMin:   0.9,
			VoltMax:   1.45,
			UsageWarn: 85,
			UsageCrit: 95,
		},
		GPU: GPUThresholds{
			TempWarn:  80,
			TempCrit:  95,
			UsageWarn: 90,
			UsageCrit: 98,
		},
		RAM: RAMThresholds{
			UsageWarn: 80,
			UsageCrit: 92,
		},
	}
}

// DetectProfile returns hardware-aware threshold defaults for the detected
// CPU and GPU, falling back to generic bounds for unknown models.
func DetectProfile(cpuName, gpuName string) ThresholdProfile {
	profile := defaultProfile()

	cpuLower := strings.ToLower(cpuName)
	for key, limits := range cpuThermalMap {
		if strings.Contains(cpuLower, key) {
			profile.CPU.TempWarn = limits.tempWarn
			profile.CPU.TempCrit = limits.tempCrit
			profile.CPU.VoltMin = limits.voltMin
			profile.CPU.VoltMax = limits.voltMax
			break
		}
	}

	gpuLower := strings.ToLower(gpuName)
	for key, limits := range gpuThermalMap {
		if strings.Contains(gpuLower, key) {
			profile.GPU.TempWarn = limits.tempWarn
			profile.GPU.TempCrit = limits.tempCrit
			break
		}
	}

	profile.DetectedFrom = DetectedFrom{
		CPU: orUnknown(cpuName),
		GPU: orUnknown(gpuName),
	}
	return profile
}

func orUnknown(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Unknown"
	}
	return name
}

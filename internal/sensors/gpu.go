package sensors

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"kamsent/internal/models"
)

// NvidiaSMISource polls GPU utilization, temperature, and VRAM usage by
// shelling out to nvidia-smi. The binary is located once at detection time;
// hosts without it get no GPU source at all and the GPU metrics stay N/A.
type NvidiaSMISource struct {
	binPath string
}

// DetectNvidiaSMI probes for the nvidia-smi binary. The second return value
// is false when no NVIDIA tooling is installed.
func DetectNvidiaSMI() (*NvidiaSMISource, bool) {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil || path == "" {
		return nil, false
	}
	return &NvidiaSMISource{binPath: path}, true
}

// Domain implements Source.
func (s *NvidiaSMISource) Domain() string { return DomainGPU }

// Metrics implements Source.
func (s *NvidiaSMISource) Metrics() []models.Metric {
	return []models.Metric{models.MetricGPUUsage, models.MetricGPUTemp, models.MetricGPUVRAM}
}

// Read implements Source. Only the first GPU is reported.
func (s *NvidiaSMISource) Read(ctx context.Context) (Sample, error) {
	out, err := exec.CommandContext(ctx, s.binPath,
		"--query-gpu=utilization.gpu,temperature.gpu,memory.used",
		"--format=csv,noheader,nounits",
	).Output()
	if err != nil {
		return nil, fmt.Errorf("gpu: nvidia-smi query: %w", err)
	}

	line := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		return nil, fmt.Errorf("gpu: unexpected nvidia-smi output %q", line)
	}

	sample := Sample{}
	if v, err := parseSMIField(fields[0]); err == nil {
		sample[models.MetricGPUUsage] = clampPercent(v)
	}
	if v, err := parseSMIField(fields[1]); err == nil {
		sample[models.MetricGPUTemp] = v
	}
	if v, err := parseSMIField(fields[2]); err == nil {
		sample[models.MetricGPUVRAM] = v
	}
	if len(sample) == 0 {
		return nil, fmt.Errorf("gpu: no parseable fields in %q", line)
	}
	return sample, nil
}

// GPUName queries the card's marketing name for the system inventory.
func (s *NvidiaSMISource) GPUName(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, s.binPath,
		"--query-gpu=name", "--format=csv,noheader").Output()
	if err != nil {
		return "", fmt.Errorf("gpu: nvidia-smi name query: %w", err)
	}
	name := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(name, '\n'); idx >= 0 {
		name = name[:idx]
	}
	if name == "" {
		return "", fmt.Errorf("gpu: empty name from nvidia-smi")
	}
	return name, nil
}

// parseSMIField handles nvidia-smi's "[Not Supported]" placeholders.
func parseSMIField(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "[") {
		return 0, ErrUnsupported
	}
	return strconv.ParseFloat(trimmed, 64)
}

// Package sensors implements the per-domain hardware polling sources behind
// a common interface. Each source is capability-probed once at startup and
// selected from a fixed variant set: native gopsutil calls, subprocess
// queries (nvidia-smi), WMI on Windows, or unsupported.
package sensors

import (
	"context"
	"errors"

	"kamsent/internal/models"
)

// Domain names the independent polling loops. Every domain owns its cache
// slots exclusively; no loop is ever shared across domains.
const (
	DomainCPU     = "cpu"
	DomainGPU     = "gpu"
	DomainThermal = "thermal"
	DomainVoltage = "voltage"
	DomainNetwork = "network"
)

// Sample maps each metric a read produced to its value. A metric absent from
// the sample means the sensor could not provide it on this pass; the cache
// records nil for it.
type Sample map[models.Metric]float64

// ErrWarmingUp is returned by delta-based sources (CPU usage, network rates)
// on their first read, which only establishes the reference counters. The
// sampler discards the pass without counting it as a failure.
var ErrWarmingUp = errors.New("sensors: warming up")

// ErrUnsupported marks a source that can never work on this host (missing
// optional dependency or platform mismatch).
var ErrUnsupported = errors.New("sensors: unsupported on this host")

// Source is one domain's polling function. Read may block on subprocesses or
// slow OS APIs; it is only ever called from the domain's own sampler loop,
// never from a request handler.
type Source interface {
	// Domain returns the loop identity (one of the Domain constants).
	Domain() string
	// Metrics lists every metric this source owns in the cache and history.
	Metrics() []models.Metric
	// Read polls the hardware once. Missing metrics in the returned sample
	// are recorded as unavailable; an error keeps the previous cached
	// values and counts toward the domain's failure streak.
	Read(ctx context.Context) (Sample, error)
}

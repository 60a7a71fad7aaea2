package warnings

import (
	"testing"
	"time"

	"kamsent/internal/models"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testEngineConfig() EngineConfig {
	return EngineConfig{
		SustainedWindow: 10,
		SustainedRatio:  0.8,
		SpikeMultiplier: 5.0,
		BaselineSamples: 12,
		MinBaselineKBps: 10,
		GraceWindow:     60 * time.Second,
	}
}

func testProfile() ThresholdProfile {
	return ThresholdProfile{
		CPU: CPUThresholds{TempWarn: 80, TempCrit: 90, VoltMin: 0.9, VoltMax: 1.45, UsageWarn: 85, UsageCrit: 95},
		GPU: GPUThresholds{TempWarn: 80, TempCrit: 95, UsageWarn: 90, UsageCrit: 98},
		RAM: RAMThresholds{UsageWarn: 80, UsageCrit: 92},
	}
}

func newTestEngine() (*Engine, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	return NewEngineWithClock(testEngineConfig(), clock.now), clock
}

func reading(v float64, at time.Time) models.SensorReading {
	return models.SensorReading{Value: &v, CapturedAt: at, TTLSeconds: 10}
}

func naReading(at time.Time) models.SensorReading {
	return models.SensorReading{CapturedAt: at, TTLSeconds: 10}
}

func metricsWith(at time.Time, vals map[models.Metric]float64) map[models.Metric]models.SensorReading {
	out := make(map[models.Metric]models.SensorReading)
	for m, v := range vals {
		out[m] = reading(v, at)
	}
	return out
}

func usagePoints(at time.Time, vals ...float64) []models.HistoryPoint {
	out := make([]models.HistoryPoint, len(vals))
	for i, v := range vals {
		value := v
		out[i] = models.HistoryPoint{At: at.Add(time.Duration(i) * time.Second), Value: &value}
	}
	return out
}

func findWarning(events []models.WarningEvent, id string) *models.WarningEvent {
	for i := range events {
		if events[i].ID == id {
			return &events[i]
		}
	}
	return nil
}

func noHistory() map[models.Metric][]models.HistoryPoint {
	return map[models.Metric][]models.HistoryPoint{}
}

func TestInstantaneousWarnAndCritical(t *testing.T) {
	e, clock := newTestEngine()
	profile := testProfile()

	events := e.Evaluate(metricsWith(clock.t, map[models.Metric]float64{models.MetricCPUTemp: 75}), noHistory(), profile)
	if len(events) != 0 {
		t.Fatalf("75°C below warn bound, expected no warnings, got %v", events)
	}

	events = e.Evaluate(metricsWith(clock.t, map[models.Metric]float64{models.MetricCPUTemp: 85}), noHistory(), profile)
	if w := findWarning(events, "cpu_temp_warn"); w == nil || w.Level != models.WarningLevelWarning {
		t.Fatalf("expected cpu_temp_warn at 85°C, got %v", events)
	}

	events = e.Evaluate(metricsWith(clock.t, map[models.Metric]float64{models.MetricCPUTemp: 95}), noHistory(), profile)
	w := findWarning(events, "cpu_temp_crit")
	if w == nil || w.Level != models.WarningLevelCritical {
		t.Fatalf("expected cpu_temp_crit at 95°C, got %v", events)
	}
	if findWarning(events, "cpu_temp_warn") != nil {
		t.Fatalf("critical must supersede warn, never report both: %v", events)
	}
}

func TestMissingSensorNeverWarns(t *testing.T) {
	e, clock := newTestEngine()
	metrics := map[models.Metric]models.SensorReading{
		models.MetricCPUTemp:    naReading(clock.t),
		models.MetricGPUTemp:    naReading(clock.t),
		models.MetricCPUVoltage: naReading(clock.t),
		models.MetricRAMUsage:   naReading(clock.t),
		models.MetricNetDown:    naReading(clock.t),
	}
	if events := e.Evaluate(metrics, noHistory(), testProfile()); len(events) != 0 {
		t.Fatalf("nil readings must never trigger warnings, got %v", events)
	}
}

func TestVoltageRuleTwoSided(t *testing.T) {
	e, clock := newTestEngine()
	profile := testProfile()

	events := e.Evaluate(metricsWith(clock.t, map[models.Metric]float64{models.MetricCPUVoltage: 1.5}), noHistory(), profile)
	if w := findWarning(events, "cpu_volt_high"); w == nil || w.Level != models.WarningLevelCritical {
		t.Fatalf("expected critical over-volt at 1.5V, got %v", events)
	}

	e2, clock2 := newTestEngine()
	events = e2.Evaluate(metricsWith(clock2.t, map[models.Metric]float64{models.MetricCPUVoltage: 0.85}), noHistory(), profile)
	if w := findWarning(events, "cpu_volt_low"); w == nil || w.Level != models.WarningLevelWarning {
		t.Fatalf("expected under-volt warning at 0.85V, got %v", events)
	}
}

func TestSustainedLoadAboveRatio(t *testing.T) {
	e, clock := newTestEngine()
	// 9 of 10 samples above the 85% warn bound: 0.9 > 0.8 ratio.
	history := map[models.Metric][]models.HistoryPoint{
		models.MetricCPUUsage: usagePoints(clock.t, 90, 90, 90, 90, 40, 90, 90, 90, 90, 90),
	}
	events := e.Evaluate(map[models.Metric]models.SensorReading{}, history, testProfile())
	if findWarning(events, "cpu_sustain_warn") == nil {
		t.Fatalf("expected sustained warning at 9/10 above threshold, got %v", events)
	}
}

func TestSustainedLoadBoundaryDoesNotFire(t *testing.T) {
	e, clock := newTestEngine()
	// Exactly 8 of 10 above threshold: 0.8 is not strictly greater than 0.8.
	history := map[models.Metric][]models.HistoryPoint{
		models.MetricCPUUsage: usagePoints(clock.t, 90, 90, 90, 90, 40, 40, 90, 90, 90, 90),
	}
	events := e.Evaluate(map[models.Metric]models.SensorReading{}, history, testProfile())
	if findWarning(events, "cpu_sustain_warn") != nil {
		t.Fatalf("boundary ratio must not fire, got %v", events)
	}
}

func TestSustainedLoadNeedsFullWindow(t *testing.T) {
	e, clock := newTestEngine()
	history := map[models.Metric][]models.HistoryPoint{
		models.MetricCPUUsage: usagePoints(clock.t, 99, 99, 99, 99, 99),
	}
	events := e.Evaluate(map[models.Metric]models.SensorReading{}, history, testProfile())
	if len(events) != 0 {
		t.Fatalf("partial window must not fire, got %v", events)
	}
}

func TestSustainedCriticalSupersedesWarn(t *testing.T) {
	e, clock := newTestEngine()
	history := map[models.Metric][]models.HistoryPoint{
		models.MetricCPUUsage: usagePoints(clock.t, 99, 99, 99, 99, 99, 99, 99, 99, 99, 99),
	}
	events := e.Evaluate(map[models.Metric]models.SensorReading{}, history, testProfile())
	if findWarning(events, "cpu_sustain_crit") == nil {
		t.Fatalf("expected sustained critical, got %v", events)
	}
	if findWarning(events, "cpu_sustain_warn") != nil {
		t.Fatalf("sustained critical must supersede warn: %v", events)
	}
}

func TestNetworkSpike(t *testing.T) {
	e, clock := newTestEngine()
	// Baseline: 12 samples at 1 MB/s, then the current sample at 6 MB/s.
	vals := make([]float64, 0, 13)
	for i := 0; i < 12; i++ {
		vals = append(vals, 1024)
	}
	vals = append(vals, 6144)
	history := map[models.Metric][]models.HistoryPoint{
		models.MetricNetDown: usagePoints(clock.t, vals...),
	}
	metrics := metricsWith(clock.t, map[models.Metric]float64{models.MetricNetDown: 6144})

	events := e.Evaluate(metrics, history, testProfile())
	if findWarning(events, "net_spike") == nil {
		t.Fatalf("6 MB/s against a 1 MB/s baseline with 5x multiplier must spike, got %v", events)
	}

	// 4 MB/s is below the 5x limit.
	e2, clock2 := newTestEngine()
	vals[12] = 4096
	history2 := map[models.Metric][]models.HistoryPoint{
		models.MetricNetDown: usagePoints(clock2.t, vals...),
	}
	metrics2 := metricsWith(clock2.t, map[models.Metric]float64{models.MetricNetDown: 4096})
	if events := e2.Evaluate(metrics2, history2, testProfile()); findWarning(events, "net_spike") != nil {
		t.Fatalf("4 MB/s must not spike, got %v", events)
	}
}

func TestNetworkSpikeQuietBaselineSuppressed(t *testing.T) {
	e, clock := newTestEngine()
	vals := make([]float64, 0, 13)
	for i := 0; i < 12; i++ {
		vals = append(vals, 2) // near-idle link
	}
	vals = append(vals, 500)
	history := map[models.Metric][]models.HistoryPoint{
		models.MetricNetDown: usagePoints(clock.t, vals...),
	}
	metrics := metricsWith(clock.t, map[models.Metric]float64{models.MetricNetDown: 500})
	if events := e.Evaluate(metrics, history, testProfile()); findWarning(events, "net_spike") != nil {
		t.Fatalf("idle-link baseline must not produce spikes, got %v", events)
	}
}

// Temperature scenario: sequence 75, 82, 91, 92, 78 against warn 80/crit 90.
// Expected: none, warn, critical, critical, still active inside the grace
// window, then inactive once the grace window passes without a breach.
func TestTemperatureScenarioWithGraceWindow(t *testing.T) {
	e, clock := newTestEngine()
	profile := testProfile()

	step := func(temp float64) []models.WarningEvent {
		events := e.Evaluate(metricsWith(clock.t, map[models.Metric]float64{models.MetricCPUTemp: temp}), noHistory(), profile)
		clock.advance(10 * time.Second)
		return events
	}

	if events := step(75); len(events) != 0 {
		t.Fatalf("step 75: expected none, got %v", events)
	}
	if events := step(82); findWarning(events, "cpu_temp_warn") == nil {
		t.Fatalf("step 82: expected warn active")
	}
	if events := step(91); findWarning(events, "cpu_temp_crit") == nil {
		t.Fatalf("step 91: expected critical active")
	}
	if events := step(92); findWarning(events, "cpu_temp_crit") == nil {
		t.Fatalf("step 92: expected critical active")
	}
	// 78 clears the condition but is inside the grace window.
	if events := step(78); findWarning(events, "cpu_temp_crit") == nil {
		t.Fatalf("step 78: warning must stay active inside the grace window")
	}

	clock.advance(60 * time.Second)
	events := e.Evaluate(metricsWith(clock.t, map[models.Metric]float64{models.MetricCPUTemp: 70}), noHistory(), profile)
	if len(events) != 0 {
		t.Fatalf("after grace window expiry expected inactive, got %v", events)
	}
}

// One clearing sample followed by an immediate re-breach must not reset the
// activation: the warning stays continuously active with its original Since.
func TestDebounceReBreachDoesNotReset(t *testing.T) {
	e, clock := newTestEngine()
	profile := testProfile()
	hot := map[models.Metric]float64{models.MetricCPUTemp: 95}
	cool := map[models.Metric]float64{models.MetricCPUTemp: 70}

	events := e.Evaluate(metricsWith(clock.t, hot), noHistory(), profile)
	first := findWarning(events, "cpu_temp_crit")
	if first == nil {
		t.Fatalf("expected initial critical")
	}
	since := first.Since

	clock.advance(10 * time.Second)
	if events := e.Evaluate(metricsWith(clock.t, cool), noHistory(), profile); findWarning(events, "cpu_temp_crit") == nil {
		t.Fatalf("clearing sample inside grace must keep warning active")
	}

	clock.advance(time.Second)
	events = e.Evaluate(metricsWith(clock.t, hot), noHistory(), profile)
	again := findWarning(events, "cpu_temp_crit")
	if again == nil {
		t.Fatalf("re-breach must keep warning active")
	}
	if !again.Since.Equal(since) {
		t.Fatalf("re-breach inside grace reset the activation: since %v != %v", again.Since, since)
	}

	// Now clear continuously: 59s in, still active; at 60s, gone.
	clock.advance(59 * time.Second)
	if events := e.Evaluate(metricsWith(clock.t, cool), noHistory(), profile); findWarning(events, "cpu_temp_crit") == nil {
		t.Fatalf("59s of clear is inside the grace window, must stay active")
	}
	clock.advance(time.Second)
	if events := e.Evaluate(metricsWith(clock.t, cool), noHistory(), profile); len(events) != 0 {
		t.Fatalf("unbroken clear for the full grace window must deactivate, got %v", events)
	}
}

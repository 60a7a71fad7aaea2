package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"kamsent/internal/config"
	"kamsent/internal/models"
	"kamsent/internal/monitor"
	"kamsent/internal/profile"
	"kamsent/internal/utils"
	"kamsent/internal/warnings"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	router     *gin.Engine
	monitor    *monitor.Monitor
	profiles   *profile.Store
	thresholds *warnings.Store
	paths      *utils.Paths
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	paths := utils.NewPaths(t.TempDir())
	if err := paths.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	logger := testLogger()

	mon := monitor.New(config.Default().Sampling, nil, logger)
	engine := warnings.NewEngine(warnings.EngineConfig{
		SustainedWindow: 6, SustainedRatio: 0.8,
		SpikeMultiplier: 5, BaselineSamples: 12, MinBaselineKBps: 10,
		GraceWindow: time.Minute,
	})
	thresholds := warnings.NewStore(paths.ThresholdsFile(), func() warnings.ThresholdProfile {
		return warnings.DetectProfile("Ryzen 7 5800X", "RTX 3080")
	}, logger)
	if err := thresholds.Load(); err != nil {
		t.Fatal(err)
	}
	profiles := profile.NewStore(paths, logger)

	facade := monitor.NewFacade(mon, engine, thresholds)
	dashboard := NewDashboardHandlers(facade, profiles, models.SystemInfo{Hostname: "bench-01"})
	thresholdAPI := NewThresholdHandlers(thresholds)

	router := gin.New()
	api := router.Group("/api")
	{
		api.GET("/stats", dashboard.APIStats)
		api.GET("/system", dashboard.APISystem)
		api.GET("/version", dashboard.APIVersion)
		api.GET("/baseline", dashboard.APIBaseline)
		api.GET("/original_profile", dashboard.APIOriginalProfile)
		api.GET("/thresholds", thresholdAPI.APIGetThresholds)
		api.POST("/thresholds", thresholdAPI.APIUpdateThresholds)
		api.POST("/thresholds/reset", thresholdAPI.APIResetThresholds)
	}
	return &fixture{router: router, monitor: mon, profiles: profiles, thresholds: thresholds, paths: paths}
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) postJSON(path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func TestAPIStatsShape(t *testing.T) {
	f := newFixture(t)
	f.monitor.Cache().Set(models.MetricCPUUsage, 41.5, time.Now(), 2*time.Second)
	f.monitor.History().Append(models.MetricCPUUsage, time.Now(), fptr(41.5))

	w := f.get("/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}

	var snap models.StatsSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	reading, ok := snap.Metrics[models.MetricCPUUsage]
	if !ok || reading.Value == nil || *reading.Value != 41.5 {
		t.Fatalf("cpu usage missing from snapshot: %+v", snap.Metrics)
	}
	// Undetected metrics are still present, as explicit nulls.
	gpu, ok := snap.Metrics[models.MetricGPUTemp]
	if !ok {
		t.Fatalf("absent metric should still be a key in the response")
	}
	if gpu.Value != nil {
		t.Fatalf("absent metric should be null, got %v", *gpu.Value)
	}
	if len(snap.History[models.MetricCPUUsage]) != 1 {
		t.Fatalf("history missing: %+v", snap.History)
	}
	if snap.Timestamp.IsZero() {
		t.Fatalf("snapshot timestamp missing")
	}
}

func TestAPIStatsIncludesWarnings(t *testing.T) {
	f := newFixture(t)
	// 95°C against the Ryzen 5800X crit bound of 90.
	f.monitor.Cache().Set(models.MetricCPUTemp, 95, time.Now(), 10*time.Second)

	var snap models.StatsSnapshot
	w := f.get("/api/stats")
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Warnings) != 1 || snap.Warnings[0].ID != "cpu_temp_crit" {
		t.Fatalf("expected cpu_temp_crit warning, got %+v", snap.Warnings)
	}
	// The warning must reference the same value the metrics section reports.
	if snap.Warnings[0].Value != *snap.Metrics[models.MetricCPUTemp].Value {
		t.Fatalf("warning value diverges from reported metric")
	}
}

func TestAPISystem(t *testing.T) {
	f := newFixture(t)
	w := f.get("/api/system")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var info models.SystemInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Hostname != "bench-01" {
		t.Fatalf("hostname lost: %q", info.Hostname)
	}
}

func TestAPIBaselineLifecycle(t *testing.T) {
	f := newFixture(t)
	if w := f.get("/api/baseline"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before baseline exists, got %d", w.Code)
	}

	if _, err := f.profiles.SaveBaseline(models.SystemInfo{Hostname: "bench-01"}, nil); err != nil {
		t.Fatal(err)
	}
	w := f.get("/api/baseline")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after baseline save, got %d", w.Code)
	}
	var b profile.Baseline
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("baseline response not valid JSON: %v", err)
	}
	if b.Type != "BASELINE_SNAPSHOT" {
		t.Fatalf("unexpected baseline type %q", b.Type)
	}
}

func TestAPIGetThresholds(t *testing.T) {
	f := newFixture(t)
	w := f.get("/api/thresholds")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var p warnings.ThresholdProfile
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.CPU.TempCrit != 90 {
		t.Fatalf("expected detected crit 90, got %v", p.CPU.TempCrit)
	}
}

func TestAPIUpdateThresholdsValid(t *testing.T) {
	f := newFixture(t)
	next := f.thresholds.Current()
	next.CPU.TempWarn = 70

	w := f.postJSON("/api/thresholds", next)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if got := f.thresholds.Current().CPU.TempWarn; got != 70 {
		t.Fatalf("update not applied: %v", got)
	}
}

func TestAPIUpdateThresholdsInvalidRejectedWhole(t *testing.T) {
	f := newFixture(t)
	before := f.thresholds.Current()

	bad := before
	bad.CPU.TempWarn = 60 // valid change
	bad.GPU.TempCrit = 0  // invalid bound
	w := f.postJSON("/api/thresholds", bad)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid profile, got %d", w.Code)
	}
	// No partial application: the valid CPU edit must not have landed either.
	if f.thresholds.Current() != before {
		t.Fatalf("invalid update partially applied")
	}
}

func TestAPIUpdateThresholdsPreservesProvenance(t *testing.T) {
	f := newFixture(t)
	next := f.thresholds.Current()
	next.DetectedFrom = warnings.DetectedFrom{CPU: "spoofed", GPU: "spoofed"}

	if w := f.postJSON("/api/thresholds", next); w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if got := f.thresholds.Current().DetectedFrom.CPU; got != "Ryzen 7 5800X" {
		t.Fatalf("client overwrote detection provenance: %q", got)
	}
}

func TestAPIResetThresholds(t *testing.T) {
	f := newFixture(t)
	tweaked := f.thresholds.Current()
	tweaked.CPU.TempWarn = 60
	if err := f.thresholds.Replace(tweaked); err != nil {
		t.Fatal(err)
	}

	w := f.postJSON("/api/thresholds/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if got := f.thresholds.Current().CPU.TempWarn; got != 75 {
		t.Fatalf("expected detected default 75 after reset, got %v", got)
	}
}

func fptr(v float64) *float64 { return &v }

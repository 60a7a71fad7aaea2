package profile

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kamsent/internal/models"
	"kamsent/internal/utils"
)

func newTestSessionLog(t *testing.T, batchSize, maxLines int) (*SessionLog, *utils.Paths) {
	t.Helper()
	paths := utils.NewPaths(t.TempDir())
	if err := paths.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	return NewSessionLog(paths, batchSize, maxLines, testLogger()), paths
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count
}

func TestSessionLogBatchesAppends(t *testing.T) {
	log, paths := newTestSessionLog(t, 3, 0)
	day := time.Now().Format("2006-01-02")
	path := paths.SessionLogFile(day)

	log.Append(sampleMetrics(10), nil)
	log.Append(sampleMetrics(11), nil)
	if got := countLines(t, path); got != 0 {
		t.Fatalf("records written before the batch filled: %d lines", got)
	}

	log.Append(sampleMetrics(12), nil)
	if got := countLines(t, path); got != 3 {
		t.Fatalf("expected 3 lines after batch flush, got %d", got)
	}
}

func TestSessionLogCloseFlushesRemainder(t *testing.T) {
	log, paths := newTestSessionLog(t, 10, 0)
	log.Append(sampleMetrics(10), nil)
	log.Append(sampleMetrics(11), nil)

	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	day := time.Now().Format("2006-01-02")
	if got := countLines(t, paths.SessionLogFile(day)); got != 2 {
		t.Fatalf("expected 2 lines after Close, got %d", got)
	}
}

func TestSessionLogRecordsCarrySessionID(t *testing.T) {
	log, paths := newTestSessionLog(t, 1, 0)
	warn := []models.WarningEvent{{ID: "cpu_temp_warn", Level: models.WarningLevelWarning}}
	log.Append(sampleMetrics(88), warn)

	day := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(paths.SessionLogFile(day))
	if err != nil {
		t.Fatal(err)
	}
	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("record not valid JSON: %v", err)
	}
	if rec.SessionID != log.SessionID() {
		t.Fatalf("record session id %q, want %q", rec.SessionID, log.SessionID())
	}
	if len(rec.Warnings) != 1 || rec.Warnings[0].ID != "cpu_temp_warn" {
		t.Fatalf("warnings lost in round trip: %+v", rec.Warnings)
	}
}

func TestSessionLogRotatesAtMaxLines(t *testing.T) {
	log, paths := newTestSessionLog(t, 1, 5)
	for i := 0; i < 6; i++ {
		log.Append(sampleMetrics(float64(i)), nil)
	}

	day := time.Now().Format("2006-01-02")
	active := paths.SessionLogFile(day)
	// After rotation the active file restarts; the rotated file keeps the
	// first five records.
	if got := countLines(t, active); got != 1 {
		t.Fatalf("expected 1 line in active file after rotation, got %d", got)
	}

	entries, err := os.ReadDir(paths.LogsDir())
	if err != nil {
		t.Fatal(err)
	}
	rotated := 0
	for _, e := range entries {
		name := e.Name()
		if name == filepath.Base(active) {
			continue
		}
		if strings.HasPrefix(name, "session_") && strings.HasSuffix(name, ".jsonl") {
			rotated++
			if got := countLines(t, filepath.Join(paths.LogsDir(), name)); got != 5 {
				t.Fatalf("rotated file has %d lines, want 5", got)
			}
		}
	}
	if rotated != 1 {
		t.Fatalf("expected exactly one rotated file, found %d", rotated)
	}
}

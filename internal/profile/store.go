// Package profile persists the write-once snapshots (baseline, original
// system profile, version marker) and the batched session log.
package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"kamsent/internal/models"
	"kamsent/internal/utils"
	"kamsent/internal/version"
)

// OriginalProfile is the first-run hardware inventory backup. Never
// overwritten once created.
type OriginalProfile struct {
	Type       string            `json:"type"`
	Warning    string            `json:"warning"`
	SavedAt    time.Time         `json:"saved_at"`
	SystemInfo models.SystemInfo `json:"system_info"`
}

// Baseline is the first-ever captured metrics snapshot for this host.
type Baseline struct {
	Type           string                                 `json:"type"`
	SavedAt        time.Time                              `json:"saved_at"`
	SystemInfo     models.SystemInfo                      `json:"system_info"`
	InitialMetrics map[models.Metric]models.SensorReading `json:"initial_metrics"`
}

// VersionInfo backs version.json and the /api/version endpoint.
type VersionInfo struct {
	Version        string `json:"version"`
	BuildDate      string `json:"build_date"`
	UpdateCheckURL string `json:"update_check_url"`
}

// Store manages the write-once files under the data directory.
type Store struct {
	paths  *utils.Paths
	logger *slog.Logger
}

// NewStore creates the write-once snapshot store.
func NewStore(paths *utils.Paths, logger *slog.Logger) *Store {
	return &Store{paths: paths, logger: logger}
}

// SaveOriginalProfile writes the hardware backup if it does not already
// exist. Returns true when a new file was created; restarts are no-ops.
func (s *Store) SaveOriginalProfile(info models.SystemInfo) (bool, error) {
	return s.writeOnce(s.paths.OriginalProfileFile(), OriginalProfile{
		Type:       "ORIGINAL_SYSTEM_PROFILE",
		Warning:    "DO NOT DELETE - required for system rollback",
		SavedAt:    time.Now(),
		SystemInfo: info,
	})
}

// SaveBaseline freezes the first captured metrics snapshot. Idempotent: a
// second call leaves the original file untouched.
func (s *Store) SaveBaseline(info models.SystemInfo, metrics map[models.Metric]models.SensorReading) (bool, error) {
	return s.writeOnce(s.paths.BaselineFile(), Baseline{
		Type:           "BASELINE_SNAPSHOT",
		SavedAt:        time.Now(),
		SystemInfo:     info,
		InitialMetrics: metrics,
	})
}

// EnsureVersionFile creates version.json on first run.
func (s *Store) EnsureVersionFile() error {
	_, err := s.writeOnce(s.paths.VersionFile(), VersionInfo{
		Version:   version.String(),
		BuildDate: time.Now().Format("2006-01-02"),
	})
	return err
}

// LoadBaseline returns the raw baseline JSON, or nil when none exists yet.
func (s *Store) LoadBaseline() (json.RawMessage, error) {
	return s.readRaw(s.paths.BaselineFile())
}

// LoadOriginalProfile returns the raw backup JSON, or nil when absent.
func (s *Store) LoadOriginalProfile() (json.RawMessage, error) {
	return s.readRaw(s.paths.OriginalProfileFile())
}

// LoadVersion returns the raw version.json contents, or nil when absent.
func (s *Store) LoadVersion() (json.RawMessage, error) {
	return s.readRaw(s.paths.VersionFile())
}

func (s *Store) readRaw(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	return json.RawMessage(data), nil
}

// writeOnce enforces the write-once invariant with an existence check, then
// writes atomically via temp file + rename.
func (s *Store) writeOnce(path string, payload any) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("profile: stat %s: %w", path, err)
	}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return false, fmt.Errorf("profile: marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("profile: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-profile-*.json")
	if err != nil {
		return false, fmt.Errorf("profile: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, fmt.Errorf("profile: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("profile: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("profile: rename temp: %w", err)
	}
	s.logger.Info("snapshot saved", slog.String("path", path))
	return true, nil
}

package warnings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store holds the active threshold profile and persists user overrides. The
// profile only changes through Replace and Reset; both validate first and
// apply all-or-nothing.
type Store struct {
	path   string
	detect func() ThresholdProfile
	logger *slog.Logger

	mu      sync.RWMutex
	profile ThresholdProfile
}

// NewStore creates a threshold store persisting to path. detect supplies the
// hardware-derived defaults used on first run and on reset.
func NewStore(path string, detect func() ThresholdProfile, logger *slog.Logger) *Store {
	return &Store{path: path, detect: detect, logger: logger}
}

// Load reads the persisted override file if present, otherwise detects and
// saves defaults. Unmarshalling over the detected defaults means keys added
// in later versions pick up their default instead of zero.
func (s *Store) Load() error {
	defaults := s.detect()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("thresholds: read %s: %w", s.path, err)
		}
		s.setProfile(defaults)
		return s.save(defaults)
	}

	profile := defaults
	if err := json.Unmarshal(data, &profile); err != nil {
		s.logger.Warn("threshold override file unreadable, using detected defaults",
			slog.String("path", s.path), slog.String("error", err.Error()))
		s.setProfile(defaults)
		return nil
	}
	if err := profile.Validate(); err != nil {
		s.logger.Warn("threshold override file invalid, using detected defaults",
			slog.String("error", err.Error()))
		s.setProfile(defaults)
		return nil
	}
	s.setProfile(profile)
	return nil
}

// Current returns a copy of the active profile.
func (s *Store) Current() ThresholdProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Replace validates and installs a full new profile, persisting it. On any
// error the active profile is untouched.
func (s *Store) Replace(profile ThresholdProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	if err := s.save(profile); err != nil {
		return err
	}
	s.setProfile(profile)
	return nil
}

// Reset re-derives hardware defaults, installs and persists them, and
// returns the new profile.
func (s *Store) Reset() (ThresholdProfile, error) {
	profile := s.detect()
	if err := s.save(profile); err != nil {
		return ThresholdProfile{}, err
	}
	s.setProfile(profile)
	return profile, nil
}

func (s *Store) setProfile(profile ThresholdProfile) {
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
}

// save writes atomically via temp file + rename so a crash mid-write never
// leaves a truncated override file.
func (s *Store) save(profile ThresholdProfile) error {
	encoded, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("thresholds: marshal: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("thresholds: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-thresholds-*.json")
	if err != nil {
		return fmt.Errorf("thresholds: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("thresholds: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("thresholds: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("thresholds: rename temp: %w", err)
	}
	return nil
}

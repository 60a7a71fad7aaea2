// Package utils contains filesystem path management shared across kamsent.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves the on-disk locations kamsent reads and writes. Everything
// lives under a single data directory so an uninstall is a single delete.
type Paths struct {
	RootPath string `json:"root_path"`
}

// NewPaths constructs Paths rooted at the specified directory.
func NewPaths(rootPath string) *Paths {
	return &Paths{RootPath: rootPath}
}

// BackupsDir holds the write-once original system profile.
func (p *Paths) BackupsDir() string {
	return filepath.Join(p.RootPath, "backups")
}

// ProfilesDir holds the baseline snapshot and user threshold overrides.
func (p *Paths) ProfilesDir() string {
	return filepath.Join(p.RootPath, "profiles")
}

// LogsDir holds the line-delimited session records.
func (p *Paths) LogsDir() string {
	return filepath.Join(p.RootPath, "logs")
}

// BaselineFile is the write-once first-run metrics snapshot.
func (p *Paths) BaselineFile() string {
	return filepath.Join(p.ProfilesDir(), "baseline.json")
}

// OriginalProfileFile is the write-once hardware inventory backup.
func (p *Paths) OriginalProfileFile() string {
	return filepath.Join(p.BackupsDir(), "original_system_profile.json")
}

// ThresholdsFile is the persisted (possibly user-overridden) threshold profile.
func (p *Paths) ThresholdsFile() string {
	return filepath.Join(p.ProfilesDir(), "thresholds.json")
}

// VersionFile records the running dashboard version for the update checker.
func (p *Paths) VersionFile() string {
	return filepath.Join(p.RootPath, "version.json")
}

// SessionLogFile is the JSONL session record for the given day (ISO date).
func (p *Paths) SessionLogFile(day string) string {
	return filepath.Join(p.LogsDir(), fmt.Sprintf("session_%s.jsonl", day))
}

// EnsureDirs creates every directory kamsent writes into.
func (p *Paths) EnsureDirs() error {
	for _, dir := range []string{p.BackupsDir(), p.ProfilesDir(), p.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("paths: create %s: %w", dir, err)
		}
	}
	return nil
}

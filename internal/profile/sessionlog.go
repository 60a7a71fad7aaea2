package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kamsent/internal/models"
	"kamsent/internal/utils"
)

// SessionRecord is one line in the session log: the metrics and active
// warnings at one sampling instant, tagged with the run's session ID.
type SessionRecord struct {
	SessionID string                                 `json:"session_id"`
	Timestamp time.Time                              `json:"ts"`
	Metrics   map[models.Metric]models.SensorReading `json:"metrics"`
	Warnings  []models.WarningEvent                  `json:"warnings,omitempty"`
}

// SessionLog batches line-delimited JSON records and flushes them every
// BatchSize appends and on Close. Samples do not need synchronous
// durability; losing the tail of a crashed session is acceptable.
type SessionLog struct {
	paths     *utils.Paths
	batchSize int
	maxLines  int
	sessionID string
	logger    *slog.Logger
	now       func() time.Time

	mu  sync.Mutex
	buf []SessionRecord
}

// NewSessionLog creates a session log writer with a fresh session ID.
func NewSessionLog(paths *utils.Paths, batchSize, maxLines int, logger *slog.Logger) *SessionLog {
	return &SessionLog{
		paths:     paths,
		batchSize: batchSize,
		maxLines:  maxLines,
		sessionID: uuid.NewString(),
		logger:    logger,
		now:       time.Now,
	}
}

// SessionID returns this run's unique identifier.
func (l *SessionLog) SessionID() string { return l.sessionID }

// Append buffers one record, flushing when the batch is full. Flush errors
// are logged, not propagated: a full disk must never break sampling.
func (l *SessionLog) Append(metrics map[models.Metric]models.SensorReading, warns []models.WarningEvent) {
	l.mu.Lock()
	l.buf = append(l.buf, SessionRecord{
		SessionID: l.sessionID,
		Timestamp: l.now(),
		Metrics:   metrics,
		Warnings:  warns,
	})
	shouldFlush := len(l.buf) >= l.batchSize
	l.mu.Unlock()

	if shouldFlush {
		if err := l.Flush(); err != nil {
			l.logger.Warn("session log flush failed", slog.String("error", err.Error()))
		}
	}
}

// Flush writes all buffered records to today's log file in one shot.
func (l *SessionLog) Flush() error {
	l.mu.Lock()
	pending := l.buf
	l.buf = nil
	l.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	day := l.now().Format("2006-01-02")
	path := l.paths.SessionLogFile(day)
	if err := l.rotateIfNeeded(path); err != nil {
		l.logger.Warn("session log rotation failed", slog.String("error", err.Error()))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("sessionlog: open %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range pending {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("sessionlog: encode: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("sessionlog: flush %s: %w", path, err)
	}
	return nil
}

// Close flushes any remaining buffered records; called on shutdown.
func (l *SessionLog) Close() error {
	return l.Flush()
}

// rotateIfNeeded renames the file with a timestamp suffix once it reaches
// maxLines, so a single day's file cannot grow without bound.
func (l *SessionLog) rotateIfNeeded(path string) error {
	if l.maxLines <= 0 {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		count++
	}
	f.Close()
	if count < l.maxLines {
		return nil
	}

	suffix := l.now().Format("150405")
	rotated := strings.TrimSuffix(path, ".jsonl") + "_" + suffix + ".jsonl"
	return os.Rename(path, rotated)
}

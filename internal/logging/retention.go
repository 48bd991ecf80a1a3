package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupOldLogs removes .log files in dir older than retentionDays. A zero or
// negative retention disables cleanup.
func CleanupOldLogs(dir string, retentionDays int, logger *slog.Logger) {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("log retention scan failed", Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove expired log", String("path", path), Error(err))
		}
	}
}

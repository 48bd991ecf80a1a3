// Package dlcache caches downloaded scene documents between jobs. Batch
// submissions frequently reference the same scenes URL; keeping a bounded
// on-disk cache avoids refetching the document for every batch entry. Entries
// are indexed in a small SQLite database and pruned least-recently-used.
package dlcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"golang.org/x/sys/unix"

	"reframe/internal/config"
	"reframe/internal/fileutil"
	"reframe/internal/logging"
)

// freeSpaceFloor is the minimum free-space ratio allowed before pruning.
const freeSpaceFloor = 0.10

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Manager stores and prunes cached downloads.
type Manager struct {
	root     string
	maxBytes int64
	db       *sql.DB
	logger   *slog.Logger
	statfs   statfsFunc
}

// Stats describes current cache usage.
type Stats struct {
	Entries    int     `json:"entries"`
	TotalBytes int64   `json:"total_bytes"`
	MaxBytes   int64   `json:"max_bytes"`
	FreeBytes  uint64  `json:"free_bytes"`
	FreeRatio  float64 `json:"free_ratio"`
}

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    key        TEXT PRIMARY KEY,
    source_url TEXT NOT NULL,
    file_name  TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    last_used  TIMESTAMP NOT NULL
);
`

// NewManager builds a cache manager when enabled; returns nil when caching is
// disabled or misconfigured.
func NewManager(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if cfg == nil || !cfg.DownloadCache.Enabled {
		return nil, nil
	}
	root := strings.TrimSpace(cfg.DownloadCache.Dir)
	if root == "" || cfg.DownloadCache.MaxGiB <= 0 {
		return nil, nil
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("dlcache: create root: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(root, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("dlcache: open index: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("dlcache: apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("dlcache: init schema: %w", err)
	}

	manager := &Manager{
		root:     root,
		maxBytes: int64(cfg.DownloadCache.MaxGiB) * 1024 * 1024 * 1024,
		db:       db,
		statfs:   realStatfs,
	}
	manager.SetLogger(logger)
	return manager, nil
}

// SetLogger refreshes the manager's logging destination.
func (m *Manager) SetLogger(logger *slog.Logger) {
	if m == nil {
		return
	}
	m.logger = logging.NewComponentLogger(logger, "dlcache")
}

// Close releases the index database.
func (m *Manager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

// Get returns the cached file for sourceURL when present, bumping its
// last-used time. The boolean reports whether the entry was usable.
func (m *Manager) Get(ctx context.Context, sourceURL string) (string, bool) {
	if m == nil {
		return "", false
	}
	key := cacheKey(sourceURL)
	var fileName string
	err := m.db.QueryRowContext(ctx,
		"SELECT file_name FROM cache_entries WHERE key = ?", key).Scan(&fileName)
	if err != nil {
		return "", false
	}
	path := filepath.Join(m.root, fileName)
	if _, statErr := os.Stat(path); statErr != nil {
		// Index row without a file; drop the stale row.
		_, _ = m.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key)
		return "", false
	}
	_, _ = m.db.ExecContext(ctx,
		"UPDATE cache_entries SET last_used = ? WHERE key = ?", time.Now().UTC(), key)
	return path, true
}

// Put copies srcPath into the cache under sourceURL's key and prunes older
// entries. It returns the cached path.
func (m *Manager) Put(ctx context.Context, sourceURL, srcPath string) (string, error) {
	if m == nil {
		return "", errors.New("dlcache: manager is nil")
	}
	key := cacheKey(sourceURL)
	fileName := key + filepath.Ext(srcPath)
	dest := filepath.Join(m.root, fileName)
	if err := fileutil.CopyFile(srcPath, dest); err != nil {
		return "", fmt.Errorf("dlcache: store entry: %w", err)
	}
	size, err := fileutil.FileSize(dest)
	if err != nil {
		return "", fmt.Errorf("dlcache: size entry: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
        INSERT INTO cache_entries (key, source_url, file_name, size_bytes, last_used)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET file_name = excluded.file_name,
            size_bytes = excluded.size_bytes, last_used = excluded.last_used`,
		key, sourceURL, fileName, size, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("dlcache: index entry: %w", err)
	}

	if err := m.prune(ctx, key); err != nil {
		return "", err
	}
	m.logger.InfoContext(ctx, "cached download",
		logging.String("source_url", sourceURL),
		logging.Int64("size_bytes", size),
	)
	return dest, nil
}

// Stats returns current cache usage and filesystem free-space info.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if m == nil {
		return s, nil
	}
	row := m.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM cache_entries")
	if err := row.Scan(&s.Entries, &s.TotalBytes); err != nil {
		return s, fmt.Errorf("dlcache: stats: %w", err)
	}
	total, free, err := m.statfs(m.root)
	if err != nil {
		return s, fmt.Errorf("dlcache: statfs: %w", err)
	}
	s.MaxBytes = m.maxBytes
	s.FreeBytes = free
	s.FreeRatio = 1.0
	if total > 0 {
		s.FreeRatio = float64(free) / float64(total)
	}
	return s, nil
}

// prune removes least-recently-used entries until both the size cap and the
// free-space floor are satisfied. keepKey protects the entry just written.
func (m *Manager) prune(ctx context.Context, keepKey string) error {
	for {
		var totalSize int64
		if err := m.db.QueryRowContext(ctx,
			"SELECT COALESCE(SUM(size_bytes), 0) FROM cache_entries").Scan(&totalSize); err != nil {
			return fmt.Errorf("dlcache: prune scan: %w", err)
		}
		freeOK, err := m.freeSpaceOK()
		if err != nil {
			return err
		}
		if totalSize <= m.maxBytes && freeOK {
			return nil
		}

		var (
			oldestKey  string
			oldestFile string
			oldestSize int64
		)
		err = m.db.QueryRowContext(ctx, `
            SELECT key, file_name, size_bytes FROM cache_entries
            WHERE key != ? ORDER BY last_used ASC LIMIT 1`, keepKey).
			Scan(&oldestKey, &oldestFile, &oldestSize)
		if errors.Is(err, sql.ErrNoRows) {
			// Only the active entry remains; nothing else to prune.
			return nil
		}
		if err != nil {
			return fmt.Errorf("dlcache: prune select: %w", err)
		}

		if err := os.Remove(filepath.Join(m.root, oldestFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("dlcache: remove %q: %w", oldestFile, err)
		}
		if _, err := m.db.ExecContext(ctx,
			"DELETE FROM cache_entries WHERE key = ?", oldestKey); err != nil {
			return fmt.Errorf("dlcache: prune delete: %w", err)
		}
		m.logger.InfoContext(ctx, "pruned cache entry",
			logging.String("cache_file", oldestFile),
			logging.Int64("entry_size_bytes", oldestSize),
		)
	}
}

func (m *Manager) freeSpaceOK() (bool, error) {
	total, free, err := m.statfs(m.root)
	if err != nil {
		return false, fmt.Errorf("dlcache: statfs: %w", err)
	}
	if total == 0 {
		return true, nil
	}
	return float64(free)/float64(total) >= freeSpaceFloor, nil
}

func cacheKey(sourceURL string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(sourceURL)))
	return hex.EncodeToString(sum[:16])
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}

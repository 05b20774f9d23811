package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache is a content-addressed response cache on disk. Keys are derived
// from (task type, model, content) so identical generation requests hit the
// same entry regardless of when or where they were issued.
type FileCache struct {
	dir string
	ttl time.Duration
}

type entry struct {
	Key       string    `json:"key"`
	TaskType  string    `json:"task_type"`
	Model     string    `json:"model"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFileCache opens (and creates if needed) the cache directory. A zero TTL
// means entries never expire.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "policyengine-cache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl}, nil
}

// Key derives the content hash for a request.
func Key(taskType, model, content string) string {
	sum := sha256.Sum256([]byte(taskType + "\x00" + model + "\x00" + content))
	return hex.EncodeToString(sum[:])
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get returns the cached value for key, or ok=false on miss or expiry.
// Expired and corrupt entries are removed on read.
func (c *FileCache) Get(key string) (string, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return "", false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		slog.Warn("Removing corrupt cache entry", "key", key, "error", err)
		os.Remove(c.path(key))
		return "", false
	}
	if c.ttl > 0 && time.Since(e.CreatedAt) > c.ttl {
		os.Remove(c.path(key))
		return "", false
	}
	return e.Value, true
}

// Put stores a value under key. Writes go through a temp file so readers
// never observe a partial entry.
func (c *FileCache) Put(key, taskType, model, value string) error {
	data, err := json.Marshal(entry{
		Key:       key,
		TaskType:  taskType,
		Model:     model,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Sweep removes expired entries and returns the number deleted.
func (c *FileCache) Sweep() (int, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	cutoff := time.Now().Add(-c.ttl)
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(c.dir, de.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

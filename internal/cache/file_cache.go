// Package cache keeps catalog search results on disk between runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const entryExt = ".json"

type CacheEntry[T any] struct {
	Request   string    `json:"request"`
	Data      T         `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Checksum  string    `json:"checksum"`
}

func (e CacheEntry[T]) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

type CacheService[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T) error
	GenerateKey(params ...interface{}) string
}

// FileCache stores one JSON file per request. A file that fails to decode, whose checksum
// does not match, or that has expired is removed on read.
type FileCache[T any] struct {
	cacheDir string
	maxAge   time.Duration
	now      func() time.Time
}

// NewFileCache caches under dir. A zero maxAge keeps entries forever.
func NewFileCache[T any](dir string, maxAge time.Duration) *FileCache[T] {
	return &FileCache[T]{cacheDir: dir, maxAge: maxAge, now: time.Now}
}

// GenerateKey describes a request by its parameters in order. The description itself is the
// key; file names are derived from it.
func (fc *FileCache[T]) GenerateKey(params ...interface{}) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%v", p)
	}
	return strings.Join(parts, "|")
}

func (fc *FileCache[T]) Get(key string) (T, bool) {
	var zero T
	path := fc.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, false
	}

	var entry CacheEntry[T]
	if err := json.Unmarshal(data, &entry); err != nil ||
		entry.Request != key ||
		entry.Checksum != checksum(entry.Data) ||
		entry.expired(fc.now()) {
		os.Remove(path)
		return zero, false
	}
	return entry.Data, true
}

func (fc *FileCache[T]) Set(key string, data T) error {
	if err := os.MkdirAll(fc.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	entry := CacheEntry[T]{
		Request:   key,
		Data:      data,
		CreatedAt: fc.now().UTC(),
		Checksum:  checksum(data),
	}
	if fc.maxAge > 0 {
		entry.ExpiresAt = entry.CreatedAt.Add(fc.maxAge)
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	path := fc.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Prune removes expired and unreadable entries and returns how many were removed.
func (fc *FileCache[T]) Prune() (int, error) {
	paths, err := filepath.Glob(filepath.Join(fc.cacheDir, "*"+entryExt))
	if err != nil {
		return 0, err
	}
	now := fc.now()
	removed := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("failed to read cache entry %s: %w", path, err)
		}
		var entry CacheEntry[T]
		if json.Unmarshal(data, &entry) == nil && !entry.expired(now) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove cache entry %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}

// Clear removes every cached entry.
func (fc *FileCache[T]) Clear() error {
	return os.RemoveAll(fc.cacheDir)
}

func (fc *FileCache[T]) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(fc.cacheDir, hex.EncodeToString(sum[:16])+entryExt)
}

func checksum[T any](data T) string {
	encoded, _ := json.Marshal(data)
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

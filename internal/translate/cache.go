package translate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"
	"time"

	"doctrans/internal/types"
)

// CacheEntry is one cached translation.
type CacheEntry struct {
	Hash        string    `json:"hash"`
	Language    string    `json:"language"`
	Source      string    `json:"source"`
	Translation string    `json:"translation"`
	CreatedAt   time.Time `json:"created_at"`
}

// cacheFile is the on-disk cache layout.
type cacheFile struct {
	Version string       `json:"version"`
	Entries []CacheEntry `json:"entries"`
}

// Cache stores translations keyed by (target language, source text) so
// re-runs and overlapping documents skip paid calls.
type Cache struct {
	path    string
	entries map[string]CacheEntry
	mu      sync.RWMutex
}

// NewCache creates a cache backed by the given file path; an empty path
// makes the cache memory-only.
func NewCache(path string) *Cache {
	return &Cache{
		path:    path,
		entries: make(map[string]CacheEntry),
	}
}

func cacheKey(lang, text string) string {
	hash := sha256.Sum256([]byte(lang + "\x00" + text))
	return hex.EncodeToString(hash[:])
}

// Get returns the cached translation for (lang, text).
func (c *Cache) Get(lang, text string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(lang, text)]
	if !ok {
		return "", false
	}
	return entry.Translation, true
}

// Set stores a translation for (lang, text).
func (c *Cache) Set(lang, text, translation string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(lang, text)
	c.entries[key] = CacheEntry{
		Hash:        key,
		Language:    lang,
		Source:      text,
		Translation: translation,
		CreatedAt:   time.Now(),
	}
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Load reads the cache file; a missing file leaves the cache empty.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return types.NewAppError(types.ErrTranslation, "failed to read cache file", err)
	}

	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return types.NewAppError(types.ErrTranslation, "failed to parse cache file", err)
	}

	c.entries = make(map[string]CacheEntry, len(file.Entries))
	for _, entry := range file.Entries {
		c.entries[entry.Hash] = entry
	}
	return nil
}

// Save writes the cache file.
func (c *Cache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.path == "" {
		return nil
	}

	entries := make([]CacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}

	data, err := json.MarshalIndent(cacheFile{Version: "1.0", Entries: entries}, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrTranslation, "failed to marshal cache", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return types.NewAppError(types.ErrTranslation, "failed to write cache file", err)
	}
	return nil
}

// Package cache implements the durable translation store: a BoltDB-backed,
// write-through cache mapping (source text, target language) to a translation.
package cache

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"language-translator-go/logcolors"
	"language-translator-go/stats"
	"language-translator-go/utils"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "translations"

// Recorder is the statistics collaborator. The cache only ever increments
// counters through it.
type Recorder interface {
	Increment(name string, amount int64)
}

// Entry is the persisted value for one (text, language) key.
type Entry struct {
	Value string `json:"value"`
}

// TranslationCache wraps BoltDB with an in-memory map for fast lookups.
// Every Put is written through to disk before it is considered complete.
type TranslationCache struct {
	db                 *bolt.DB
	dbPath             string
	compressionEnabled bool
	recorder           Recorder

	mu      sync.RWMutex
	entries map[string]map[string]string // text -> language -> translation
}

// Open opens (or creates) the cache database at dbPath and loads all entries
// into memory. A structurally invalid database is moved aside and replaced
// with an empty one; the engine proceeds with a cold cache rather than abort.
func Open(dbPath string, compressionEnabled bool, recorder Recorder) (*TranslationCache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := openOrRecover(dbPath)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(stats.BucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache buckets: %w", err)
	}

	tc := &TranslationCache{
		db:                 db,
		dbPath:             dbPath,
		compressionEnabled: compressionEnabled,
		recorder:           recorder,
		entries:            make(map[string]map[string]string),
	}

	if err := tc.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload cache to memory: %v", logcolors.LogCacheLoad, err)
	}

	log.Infof("%s Translation cache initialized at %s (%d texts, compression: %v)",
		logcolors.LogCacheInit, dbPath, len(tc.entries), compressionEnabled)
	return tc, nil
}

// openOrRecover opens the database, moving a corrupt file out of the way and
// starting empty instead of failing the run.
func openOrRecover(dbPath string) (*bolt.DB, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err == nil {
		return db, nil
	}

	if _, statErr := os.Stat(dbPath); statErr != nil {
		// Nothing to recover from: the path itself is unusable.
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	quarantined := dbPath + ".corrupt"
	log.Warnf("%s Cache database unreadable (%v), moving to %s and starting empty",
		logcolors.LogCacheLoad, err, quarantined)
	if renameErr := os.Rename(dbPath, quarantined); renameErr != nil {
		return nil, fmt.Errorf("failed to quarantine corrupt cache database: %w", renameErr)
	}

	db, err = bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to recreate cache database: %w", err)
	}
	return db, nil
}

// loadToMemory loads all persisted entries into the in-memory map. Entries it
// cannot decode are skipped, not fatal.
func (tc *TranslationCache) loadToMemory() error {
	count := 0
	err := tc.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			text, lang, err := decodeKey(k)
			if err != nil {
				log.Warnf("%s Skipping undecodable cache key %q: %v", logcolors.LogCacheLoad, string(k), err)
				return nil
			}
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warnf("%s Skipping undecodable cache entry for key %q: %v", logcolors.LogCacheLoad, string(k), err)
				return nil
			}
			value := entry.Value
			if tc.compressionEnabled {
				value, err = utils.DecompressString(value)
				if err != nil {
					log.Warnf("%s Skipping undecompressable cache entry for key %q: %v", logcolors.LogCacheLoad, string(k), err)
					return nil
				}
			}
			if tc.entries[text] == nil {
				tc.entries[text] = make(map[string]string)
			}
			tc.entries[text][lang] = value
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d entries from disk to memory", logcolors.LogCacheLoad, count)
	return nil
}

// encodeKey builds the durable key for a (text, language) pair. The text
// segment is base64url so embedded quotes, separators and newlines survive
// the round trip.
func encodeKey(text, language string) []byte {
	return []byte(base64.URLEncoding.EncodeToString([]byte(text)) + "/" + language)
}

func decodeKey(key []byte) (text, language string, err error) {
	parts := strings.SplitN(string(key), "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("malformed cache key")
	}
	raw, err := base64.URLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", err
	}
	return string(raw), parts[1], nil
}

func (tc *TranslationCache) record(name string, amount int64) {
	if tc.recorder != nil {
		tc.recorder.Increment(name, amount)
	}
}

// Get returns a copy of all cached translations for a source text; an empty
// map if none.
func (tc *TranslationCache) Get(text string) map[string]string {
	text = strings.TrimSpace(text)

	tc.mu.RLock()
	defer tc.mu.RUnlock()

	langs, ok := tc.entries[text]
	if !ok {
		tc.record(stats.CacheMisses, 1)
		return map[string]string{}
	}
	tc.record(stats.CacheHits, 1)

	out := make(map[string]string, len(langs))
	for lang, v := range langs {
		out[lang] = v
	}
	return out
}

// GetLang returns the cached translation for one (text, language) pair.
func (tc *TranslationCache) GetLang(text, language string) (string, bool) {
	text = strings.TrimSpace(text)

	tc.mu.RLock()
	defer tc.mu.RUnlock()

	v, ok := tc.entries[text][language]
	if ok {
		tc.record(stats.CacheHits, 1)
	} else {
		tc.record(stats.CacheMisses, 1)
	}
	return v, ok
}

// Put stores a translation for (text, language), trimming surrounding
// whitespace on both text and value. Writing an existing key is a no-op, so
// a repeated Put can never change a stored translation. The entry is durable
// on disk before Put returns.
func (tc *TranslationCache) Put(text, language, translation string) error {
	text = strings.TrimSpace(text)
	translation = strings.TrimSpace(translation)

	tc.mu.Lock()
	defer tc.mu.Unlock()

	if _, exists := tc.entries[text][language]; exists {
		return nil
	}

	stored := translation
	if tc.compressionEnabled {
		var err error
		stored, err = utils.CompressString(translation)
		if err != nil {
			return fmt.Errorf("failed to compress cache value: %w", err)
		}
	}

	data, err := json.Marshal(Entry{Value: stored})
	if err != nil {
		return err
	}

	err = tc.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put(encodeKey(text, language), data)
	})
	if err != nil {
		return fmt.Errorf("failed to persist cache entry: %w", err)
	}

	if tc.entries[text] == nil {
		tc.entries[text] = make(map[string]string)
	}
	tc.entries[text][language] = translation
	return nil
}

// Missing returns allLanguages minus the languages already cached for text,
// preserving allLanguages' order. Per-language hits and misses are counted
// into statistics.
func (tc *TranslationCache) Missing(text string, allLanguages []string) []string {
	text = strings.TrimSpace(text)

	tc.mu.RLock()
	defer tc.mu.RUnlock()

	cached := tc.entries[text]
	missing := make([]string, 0, len(allLanguages))
	for _, lang := range allLanguages {
		if _, ok := cached[lang]; ok {
			tc.record(stats.CacheHits, 1)
			continue
		}
		tc.record(stats.CacheMisses, 1)
		missing = append(missing, lang)
	}
	return missing
}

// Delete removes one (text, language) entry, from memory and disk.
func (tc *TranslationCache) Delete(text, language string) error {
	text = strings.TrimSpace(text)

	tc.mu.Lock()
	defer tc.mu.Unlock()

	if langs, ok := tc.entries[text]; ok {
		delete(langs, language)
		if len(langs) == 0 {
			delete(tc.entries, text)
		}
	}

	return tc.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Delete(encodeKey(text, language))
	})
}

// Len returns the number of cached (text, language) entries.
func (tc *TranslationCache) Len() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	n := 0
	for _, langs := range tc.entries {
		n += len(langs)
	}
	return n
}

// DB exposes the underlying database so the stats sub-store can share the
// same durable file.
func (tc *TranslationCache) DB() *bolt.DB {
	return tc.db
}

// Flush forces the database to disk. Puts are already write-through; this is
// the shutdown barrier.
func (tc *TranslationCache) Flush() error {
	return tc.db.Sync()
}

// Close flushes and closes the database.
func (tc *TranslationCache) Close() error {
	log.Infof("%s Closing cache with %d entries", logcolors.LogCache, tc.Len())
	return tc.db.Close()
}

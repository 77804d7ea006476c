package stats

import (
	"encoding/json"
	"fmt"
	"time"

	"language-translator-go/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	// BucketName is the stats sub-store inside the shared cache database.
	BucketName = "stats"
	statsKey   = "run_stats"
)

// PersistedStats is the JSON shape of the stats sub-store. Counters accumulate
// across runs.
type PersistedStats struct {
	FilesProcessed      int64 `json:"files_processed"`
	EntriesTranslated   int64 `json:"entries_translated"`
	APISuccess          int64 `json:"api_success"`
	APIFail             int64 `json:"api_fail"`
	APITimeMicros       int64 `json:"api_time_us"`
	CacheHits           int64 `json:"cache_hits"`
	CacheMisses         int64 `json:"cache_misses"`
	TotalPromptTokens   int64 `json:"total_prompt_tokens"`
	TotalResponseTokens int64 `json:"total_response_tokens"`
	TotalTranslations   int64 `json:"total_translations"`

	LastSaved    time.Time `json:"last_saved"`
	FirstStarted time.Time `json:"first_started"`
}

// Load reads persisted stats from the shared database and applies them to s.
// A missing or unreadable sub-store starts from zero; it never fails the run.
func (s *Stats) Load(db *bolt.DB) error {
	var persisted PersistedStats
	found := false

	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(statsKey))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &persisted)
	})
	if err != nil {
		log.Warnf("%s Unreadable stats sub-store, starting from zero: %v", logcolors.LogStats, err)
		return nil
	}
	if !found {
		return nil
	}

	s.filesProcessed.Store(persisted.FilesProcessed)
	s.entriesTranslated.Store(persisted.EntriesTranslated)
	s.apiSuccess.Store(persisted.APISuccess)
	s.apiFail.Store(persisted.APIFail)
	s.apiTimeMicros.Store(persisted.APITimeMicros)
	s.cacheHits.Store(persisted.CacheHits)
	s.cacheMisses.Store(persisted.CacheMisses)
	s.totalPromptTokens.Store(persisted.TotalPromptTokens)
	s.totalResponseTokens.Store(persisted.TotalResponseTokens)
	s.totalTranslations.Store(persisted.TotalTranslations)

	if !persisted.FirstStarted.IsZero() {
		s.StartTime = persisted.FirstStarted
	}

	log.Infof("%s Loaded persisted stats (entries translated: %d, first started: %s)",
		logcolors.LogStats, persisted.EntriesTranslated, persisted.FirstStarted.Format(time.RFC3339))

	return nil
}

// Save persists current stats into the shared database.
func (s *Stats) Save(db *bolt.DB) error {
	persisted := PersistedStats{
		FilesProcessed:      s.filesProcessed.Load(),
		EntriesTranslated:   s.entriesTranslated.Load(),
		APISuccess:          s.apiSuccess.Load(),
		APIFail:             s.apiFail.Load(),
		APITimeMicros:       s.apiTimeMicros.Load(),
		CacheHits:           s.cacheHits.Load(),
		CacheMisses:         s.cacheMisses.Load(),
		TotalPromptTokens:   s.totalPromptTokens.Load(),
		TotalResponseTokens: s.totalResponseTokens.Load(),
		TotalTranslations:   s.totalTranslations.Load(),
		LastSaved:           time.Now(),
		FirstStarted:        s.StartTime,
	}

	data, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		if err != nil {
			return err
		}
		return b.Put([]byte(statsKey), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}

	return nil
}

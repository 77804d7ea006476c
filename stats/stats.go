package stats

import (
	"sync/atomic"
	"time"
)

// Counter names. The core only ever increments these; nothing reads them back
// for control decisions.
const (
	FilesProcessed      = "files_processed"
	EntriesTranslated   = "entries_translated"
	APISuccess          = "api_success"
	APIFail             = "api_fail"
	APITime             = "api_time"
	CacheHits           = "cache_hits"
	CacheMisses         = "cache_misses"
	TotalPromptTokens   = "total_prompt_tokens"
	TotalResponseTokens = "total_response_tokens"
	TotalTranslations   = "total_translations"
)

// Stats holds all run statistics with atomic counters.
type Stats struct {
	StartTime time.Time

	filesProcessed      atomic.Int64
	entriesTranslated   atomic.Int64
	apiSuccess          atomic.Int64
	apiFail             atomic.Int64
	apiTimeMicros       atomic.Int64
	cacheHits           atomic.Int64
	cacheMisses         atomic.Int64
	totalPromptTokens   atomic.Int64
	totalResponseTokens atomic.Int64
	totalTranslations   atomic.Int64
}

// Global stats instance
var global = &Stats{
	StartTime: time.Now(),
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// New returns a fresh Stats instance, used by tests that need isolation from
// the global counters.
func New() *Stats {
	return &Stats{StartTime: time.Now()}
}

func (s *Stats) counter(name string) *atomic.Int64 {
	switch name {
	case FilesProcessed:
		return &s.filesProcessed
	case EntriesTranslated:
		return &s.entriesTranslated
	case APISuccess:
		return &s.apiSuccess
	case APIFail:
		return &s.apiFail
	case APITime:
		return &s.apiTimeMicros
	case CacheHits:
		return &s.cacheHits
	case CacheMisses:
		return &s.cacheMisses
	case TotalPromptTokens:
		return &s.totalPromptTokens
	case TotalResponseTokens:
		return &s.totalResponseTokens
	case TotalTranslations:
		return &s.totalTranslations
	default:
		return nil
	}
}

// Increment adds amount to the named counter. Unknown names are ignored.
func (s *Stats) Increment(name string, amount int64) {
	if c := s.counter(name); c != nil {
		c.Add(amount)
	}
}

// Value returns the current value of the named counter.
func (s *Stats) Value(name string) int64 {
	if c := s.counter(name); c != nil {
		return c.Load()
	}
	return 0
}

// RecordAPITime records the elapsed wall time of one provider call.
func (s *Stats) RecordAPITime(d time.Duration) {
	s.apiTimeMicros.Add(d.Microseconds())
}

// TotalAPITime returns the accumulated provider call time.
func (s *Stats) TotalAPITime() time.Duration {
	return time.Duration(s.apiTimeMicros.Load()) * time.Microsecond
}

// CacheHitRate returns the cache hit rate as a percentage
func (s *Stats) CacheHitRate() float64 {
	hits := s.cacheHits.Load()
	misses := s.cacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Uptime returns how long this run has been going.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"run": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"processing": map[string]interface{}{
			"files_processed":    s.filesProcessed.Load(),
			"entries_translated": s.entriesTranslated.Load(),
			"total_translations": s.totalTranslations.Load(),
		},
		"cache": map[string]interface{}{
			"hits":     s.cacheHits.Load(),
			"misses":   s.cacheMisses.Load(),
			"hit_rate": s.CacheHitRate(),
		},
		"api": map[string]interface{}{
			"success":               s.apiSuccess.Load(),
			"fail":                  s.apiFail.Load(),
			"total_time":            s.TotalAPITime().String(),
			"total_prompt_tokens":   s.totalPromptTokens.Load(),
			"total_response_tokens": s.totalResponseTokens.Load(),
		},
	}
}

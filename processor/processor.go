// Package processor walks localization documents through the cache and the
// batch scheduler with a bounded worker pool. Each worker owns one document
// at a time; entries within a document are handled sequentially.
package processor

import (
	"context"
	"sync"

	"language-translator-go/batch"
	"language-translator-go/logcolors"
	"language-translator-go/stats"

	log "github.com/sirupsen/logrus"
)

// Entry is one translatable unit: a stable key and its source text.
type Entry struct {
	Key  string
	Text string
}

// Document is a localization file to translate. Write receives translations
// in header order; Save persists the finished document.
type Document interface {
	Name() string
	Entries() []Entry
	Languages() []string
	Write(key, language, translation string) error
	Save() error
}

// Cache is the read side of the translation store the processor needs.
type Cache interface {
	Get(text string) map[string]string
	Missing(text string, allLanguages []string) []string
}

// Scheduler resolves a text's missing languages. The batch scheduler
// implements it.
type Scheduler interface {
	Schedule(ctx context.Context, text string, missing []string) (batch.Result, error)
}

// Processor drives translation of a set of documents.
type Processor struct {
	cache     Cache
	scheduler Scheduler
	stats     *stats.Stats
	workers   int
}

func New(cache Cache, scheduler Scheduler, st *stats.Stats, workers int) *Processor {
	if workers <= 0 {
		workers = 1
	}
	return &Processor{cache: cache, scheduler: scheduler, stats: st, workers: workers}
}

// Run processes all documents with the configured number of workers and
// returns the first document error encountered, if any. Cancellation stops
// workers between entries; documents already saved stay saved.
func (p *Processor) Run(ctx context.Context, docs []Document) error {
	jobs := make(chan Document)
	errCh := make(chan error, len(docs))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for doc := range jobs {
				if err := p.processDocument(ctx, id, doc); err != nil {
					errCh <- err
				}
			}
		}(i)
	}

	for _, doc := range docs {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- doc:
		}
	}
	close(jobs)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) processDocument(ctx context.Context, worker int, doc Document) error {
	languages := doc.Languages()
	log.Infof("%s Worker %d processing %s (%d entries, %d languages)",
		logcolors.LogWorker, worker, doc.Name(), len(doc.Entries()), len(languages))

	for _, entry := range doc.Entries() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processEntry(ctx, doc, entry, languages); err != nil {
			log.Errorf("%s Entry %s in %s: %v", logcolors.LogEntry, entry.Key, doc.Name(), err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := doc.Save(); err != nil {
		return err
	}
	p.stats.Increment(stats.FilesProcessed, 1)
	log.Infof("%s Worker %d finished %s", logcolors.LogWorker, worker, doc.Name())
	return nil
}

// processEntry fills the cache for an entry's missing languages and then
// writes every cached translation into the document in header order.
func (p *Processor) processEntry(ctx context.Context, doc Document, entry Entry, languages []string) error {
	if entry.Text == "" {
		return nil
	}

	missing := p.cache.Missing(entry.Text, languages)
	if len(missing) > 0 {
		res, err := p.scheduler.Schedule(ctx, entry.Text, missing)
		if len(res.Translated) > 0 {
			p.stats.Increment(stats.EntriesTranslated, int64(len(res.Translated)))
		}
		if len(res.Failed) > 0 {
			log.Warnf("%s %s: no translation for %v", logcolors.LogEntry, entry.Key, res.Failed)
		}
		if err != nil {
			return err
		}
	}

	cached := p.cache.Get(entry.Text)
	for _, lang := range languages {
		translation, ok := cached[lang]
		if !ok {
			continue
		}
		if err := doc.Write(entry.Key, lang, translation); err != nil {
			return err
		}
		p.stats.Increment(stats.TotalTranslations, 1)
	}
	return nil
}

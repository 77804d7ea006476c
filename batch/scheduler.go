// Package batch groups the missing target languages of a text into token
// budgeted calls. Batches that blow the budget or keep failing shrink by
// halving, and whatever is left falls back to one call per language.
package batch

import (
	"context"
	"errors"

	"language-translator-go/logcolors"

	log "github.com/sirupsen/logrus"
)

const defaultRetries = 3

// Translator performs one translation call. The gateway implements it.
type Translator interface {
	Translate(ctx context.Context, text string, languages []string) (map[string]string, error)
}

// Store receives successful translations as they arrive, so partial progress
// survives a later failure.
type Store interface {
	Put(text, language, translation string) error
}

// Sizer provides the token estimates that decide batch cut points.
type Sizer interface {
	MaxAllowedTokens() int
	EstimatePrompt(text string, languages []string) int
	EstimateResponse(text, language string) int
}

// Result reports which languages ended up translated and which were given up
// on. Both lists follow the input order.
type Result struct {
	Translated []string
	Failed     []string
}

// Scheduler drives the batching state machine for one text at a time.
type Scheduler struct {
	translator Translator
	store      Store
	sizer      Sizer
	retries    int
}

// Config wires a Scheduler. Retries is the total attempt count per batch
// before the single-language fallback kicks in (default 3).
type Config struct {
	Translator Translator
	Store      Store
	Sizer      Sizer
	Retries    int
}

func New(cfg Config) *Scheduler {
	if cfg.Retries <= 0 {
		cfg.Retries = defaultRetries
	}
	return &Scheduler{
		translator: cfg.Translator,
		store:      cfg.Store,
		sizer:      cfg.Sizer,
		retries:    cfg.Retries,
	}
}

// Schedule translates text into every language in missing, batching as many
// languages per call as the token budget allows. Translations are written to
// the store as soon as they arrive. A non-nil error means the context ended;
// the returned Result still covers everything resolved before that.
func (s *Scheduler) Schedule(ctx context.Context, text string, missing []string) (Result, error) {
	var res Result
	pending := append([]string(nil), missing...)

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		batch := s.buildBatch(text, pending)
		pending = pending[len(batch):]

		if len(batch) == 1 && s.overBudget(text, batch[0]) {
			// Even a single language exceeds the budget. Try it alone
			// anyway; the provider may still manage.
			log.Warnf("%s Language %s alone exceeds the token budget, sending as single call",
				logcolors.LogBatch, batch[0])
			s.single(ctx, text, batch[0], &res)
			continue
		}

		done, err := s.runBatch(ctx, text, batch)
		for _, lang := range batch {
			if _, ok := done[lang]; ok {
				res.Translated = append(res.Translated, lang)
			}
		}
		if err != nil {
			res.Failed = append(res.Failed, remainingOf(batch, done)...)
			return res, err
		}

		// Whatever the batch attempts did not resolve gets one single
		// language call each, in order.
		for _, lang := range remainingOf(batch, done) {
			if err := ctx.Err(); err != nil {
				res.Failed = append(res.Failed, lang)
				continue
			}
			log.Infof("%s Falling back to single call for %s", logcolors.LogFallback, lang)
			s.single(ctx, text, lang, &res)
		}
	}

	return res, ctx.Err()
}

// buildBatch takes the longest prefix of pending whose estimated prompt plus
// response cost stays within the budget. At least one language is always
// taken so progress is guaranteed.
func (s *Scheduler) buildBatch(text string, pending []string) []string {
	budget := s.sizer.MaxAllowedTokens()
	responses := 0
	count := 0
	for _, lang := range pending {
		responses += s.sizer.EstimateResponse(text, lang)
		total := s.sizer.EstimatePrompt(text, pending[:count+1]) + responses
		log.Debugf("%s Running estimate after %s: %d/%d tokens", logcolors.LogToken,
			lang, total, budget)
		if total > budget && count > 0 {
			break
		}
		count++
		if total > budget {
			break
		}
	}
	batch := pending[:count]
	log.Debugf("%s Batch of %d/%d languages for %q", logcolors.LogBatch,
		len(batch), len(pending), shorten(text))
	return batch
}

func (s *Scheduler) overBudget(text, language string) bool {
	return s.sizer.EstimatePrompt(text, []string{language})+
		s.sizer.EstimateResponse(text, language) > s.sizer.MaxAllowedTokens()
}

// runBatch attempts the batch up to s.retries times, halving the language
// slice after each attempt that makes no progress. Languages halved away are
// not failed; the caller routes them to the single fallback.
func (s *Scheduler) runBatch(ctx context.Context, text string, batch []string) (map[string]string, error) {
	done := make(map[string]string, len(batch))
	remaining := append([]string(nil), batch...)

	for attempt := 1; attempt <= s.retries && len(remaining) > 0; attempt++ {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		res, err := s.translator.Translate(ctx, text, remaining)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return done, err
			}
			log.Warnf("%s Batch attempt %d/%d failed for %v: %v", logcolors.LogBatch,
				attempt, s.retries, remaining, err)
			remaining = halve(remaining)
			continue
		}

		progress := false
		for _, lang := range remaining {
			translation, ok := res[lang]
			if !ok || translation == "" {
				continue
			}
			if err := s.store.Put(text, lang, translation); err != nil {
				log.Errorf("%s Failed to store %s translation: %v", logcolors.LogBatch, lang, err)
				continue
			}
			done[lang] = translation
			progress = true
		}
		remaining = remainingOf(remaining, done)

		if !progress {
			log.Warnf("%s Batch attempt %d/%d returned no usable translations for %v",
				logcolors.LogBatch, attempt, s.retries, remaining)
			remaining = halve(remaining)
		}
	}

	return done, nil
}

// single makes one attempt to translate a lone language and records the
// outcome directly on res.
func (s *Scheduler) single(ctx context.Context, text, language string, res *Result) {
	result, err := s.translator.Translate(ctx, text, []string{language})
	if err != nil {
		log.Errorf("%s Single call for %s failed: %v", logcolors.LogSingle, language, err)
		res.Failed = append(res.Failed, language)
		return
	}
	translation, ok := result[language]
	if !ok || translation == "" {
		res.Failed = append(res.Failed, language)
		return
	}
	if err := s.store.Put(text, language, translation); err != nil {
		log.Errorf("%s Failed to store %s translation: %v", logcolors.LogSingle, language, err)
		res.Failed = append(res.Failed, language)
		return
	}
	res.Translated = append(res.Translated, language)
}

func halve(languages []string) []string {
	if len(languages) <= 1 {
		return languages
	}
	return languages[:(len(languages)+1)/2]
}

func remainingOf(batch []string, done map[string]string) []string {
	var out []string
	for _, lang := range batch {
		if _, ok := done[lang]; !ok {
			out = append(out, lang)
		}
	}
	return out
}

func shorten(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

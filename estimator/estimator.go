// Package estimator provides deterministic token cost estimates for
// translation prompts and their per-language responses. The estimates drive
// batch sizing; no network calls are involved.
package estimator

import (
	"sync"

	"language-translator-go/logcolors"

	log "github.com/sirupsen/logrus"
)

const (
	// Rough chars-per-token ratio for latin text.
	charsPerToken = 4
	// Fixed prompt overhead: instructions, response format, framing.
	promptOverheadTokens = 60
	// Additional prompt tokens per requested language (its name plus the
	// per-language instruction fragment).
	perLanguageOverheadTokens = 8
	// Fixed response overhead per language: JSON key, quoting, separators.
	responseOverheadTokens = 6
)

// defaultExpansionFactors capture how much longer a translation tends to be
// than its English source, per target language. Unlisted languages use 1.0.
var defaultExpansionFactors = map[string]float64{
	"german":    1.25,
	"french":    1.2,
	"italian":   1.15,
	"spanish":   1.15,
	"latam":     1.15,
	"brazilian": 1.15,
	"polish":    1.1,
	"russian":   1.1,
	"turkish":   1.05,
	"japanese":  0.8,
	"koreana":   0.8,
	"schinese":  0.6,
	"tchinese":  0.6,
}

// Estimator computes prompt and response token estimates. Observed usage can
// refine the per-language expansion factors at runtime; the static heuristic
// is the baseline when no history exists.
type Estimator struct {
	maxAllowedTokens int

	mu       sync.Mutex
	factors  map[string]float64
	observed map[string]*observedRatio
}

type observedRatio struct {
	samples int
	factor  float64
}

// New creates an estimator with the given batch token budget.
func New(maxAllowedTokens int) *Estimator {
	factors := make(map[string]float64, len(defaultExpansionFactors))
	for lang, f := range defaultExpansionFactors {
		factors[lang] = f
	}
	return &Estimator{
		maxAllowedTokens: maxAllowedTokens,
		factors:          factors,
		observed:         make(map[string]*observedRatio),
	}
}

// MaxAllowedTokens is the per-batch budget.
func (e *Estimator) MaxAllowedTokens() int {
	return e.maxAllowedTokens
}

func textTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// EstimatePrompt estimates the token cost of the full prompt for translating
// text into the given languages.
func (e *Estimator) EstimatePrompt(text string, languages []string) int {
	return textTokens(text) + promptOverheadTokens + perLanguageOverheadTokens*len(languages)
}

// ExpansionFactor returns the current factor for a language: the refined
// value when enough usage has been observed, otherwise the static default
// (1.0 for unknown languages).
func (e *Estimator) ExpansionFactor(language string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if obs, ok := e.observed[language]; ok && obs.samples >= 3 {
		return obs.factor
	}
	if f, ok := e.factors[language]; ok {
		return f
	}
	return 1.0
}

// EstimateResponse estimates the expected response size for one language. The
// per-language estimate is logged; BatchScheduler uses the running values to
// decide the batch cut point.
func (e *Estimator) EstimateResponse(text, language string) int {
	estimate := int(float64(textTokens(text))*e.ExpansionFactor(language)) + responseOverheadTokens
	log.Debugf("%s Estimated response tokens for %s: %d", logcolors.LogToken, language, estimate)
	return estimate
}

// ObserveResponse feeds actual response token usage back into the expansion
// factor for a language, as an exponential moving average over the observed
// tokens-per-source-token ratio.
func (e *Estimator) ObserveResponse(text, language string, responseTokens int) {
	source := textTokens(text)
	if source == 0 || responseTokens <= responseOverheadTokens {
		return
	}
	ratio := float64(responseTokens-responseOverheadTokens) / float64(source)

	e.mu.Lock()
	defer e.mu.Unlock()

	obs, ok := e.observed[language]
	if !ok {
		obs = &observedRatio{factor: ratio}
		e.observed[language] = obs
	} else {
		const alpha = 0.3
		obs.factor = obs.factor*(1-alpha) + ratio*alpha
	}
	obs.samples++
	log.Debugf("%s Refined expansion factor for %s: %.2f (%d samples)",
		logcolors.LogToken, language, obs.factor, obs.samples)
}

// Package gateway executes translation requests against two interchangeable
// remote providers with sliding-window admission, retry with exponential
// backoff, and provider alternation.
package gateway

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"language-translator-go/circuitbreaker"
	"language-translator-go/logcolors"
	"language-translator-go/ratelimit"
	"language-translator-go/stats"
	"language-translator-go/utils"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxAttempts = 3

// Observer receives actual usage after successful calls. The estimator
// implements it to refine its expansion factors.
type Observer interface {
	ObserveResponse(text, language string, responseTokens int)
}

// Gateway fans translation calls out to the validated providers.
type Gateway struct {
	providers []Provider // configured, pre-validation
	valid     []Provider // set once by Validate before workers start

	breakers map[string]*circuitbreaker.CircuitBreaker
	limiter  *ratelimit.Limiter
	// Global smoothing tier across both providers, on top of the
	// per-provider windows.
	global *rate.Limiter

	stats          *stats.Stats
	observer       Observer
	requestTimeout time.Duration
	retryDelay     time.Duration
}

// Config wires the gateway's collaborators.
type Config struct {
	Providers      []Provider
	Limiter        *ratelimit.Limiter
	GlobalLimiter  *rate.Limiter
	Stats          *stats.Stats
	Observer       Observer
	RequestTimeout time.Duration
	RetryDelay     time.Duration
	BreakerConfig  circuitbreaker.Config
}

// New creates a gateway. Validate must be called before Translate.
func New(cfg Config) *Gateway {
	breakers := make(map[string]*circuitbreaker.CircuitBreaker, len(cfg.Providers))
	for _, p := range cfg.Providers {
		bc := cfg.BreakerConfig
		bc.Name = p.Name()
		breakers[p.Name()] = circuitbreaker.New(bc)
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.GlobalLimiter == nil {
		cfg.GlobalLimiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Gateway{
		providers:      cfg.Providers,
		breakers:       breakers,
		limiter:        cfg.Limiter,
		global:         cfg.GlobalLimiter,
		stats:          cfg.Stats,
		observer:       cfg.Observer,
		requestTimeout: cfg.RequestTimeout,
		retryDelay:     cfg.RetryDelay,
	}
}

// Validate probes every configured provider once. Providers whose probe
// fails are never selected again for the process lifetime. It fails only if
// no provider validates.
func (g *Gateway) Validate(ctx context.Context) error {
	g.valid = g.valid[:0]
	for _, p := range g.providers {
		if err := p.Probe(ctx); err != nil {
			log.Errorf("%s Provider %s failed validation, disabling: %v", logcolors.LogProbe, p.Name(), err)
			continue
		}
		log.Infof("%s Provider %s validated", logcolors.LogProbe, p.Name())
		g.valid = append(g.valid, p)
	}
	if len(g.valid) == 0 {
		return ErrNoProviderAvailable
	}
	return nil
}

// ValidProviders lists the names of providers that passed validation.
func (g *Gateway) ValidProviders() []string {
	names := make([]string, 0, len(g.valid))
	for _, p := range g.valid {
		names = append(names, p.Name())
	}
	return names
}

// choose picks the provider for an attempt: random among VALID providers,
// excluding the one that just failed when an alternative exists, and
// preferring providers whose breaker admits traffic. A tripped breaker only
// deprioritizes; it never rules out the last candidate.
func (g *Gateway) choose(exclude Provider) (Provider, error) {
	if len(g.valid) == 0 {
		return nil, ErrNoProviderAvailable
	}

	candidates := g.valid
	if exclude != nil && len(g.valid) > 1 {
		candidates = make([]Provider, 0, len(g.valid)-1)
		for _, p := range g.valid {
			if p != exclude {
				candidates = append(candidates, p)
			}
		}
	}

	allowed := make([]Provider, 0, len(candidates))
	for _, p := range candidates {
		if g.breakers[p.Name()].Allow() {
			allowed = append(allowed, p)
		}
	}
	if len(allowed) == 0 {
		allowed = candidates
	}

	return allowed[rand.Intn(len(allowed))], nil
}

// Translate asks a provider for translations of text into languages and
// returns the language→translation mapping. Transport and parse failures are
// retried with exponential backoff up to 3 attempts, switching to the other
// valid provider between attempts when one exists.
func (g *Gateway) Translate(ctx context.Context, text string, languages []string) (map[string]string, error) {
	var lastErr error
	var lastProvider Provider

	prompt := buildPrompt(text, languages)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		provider, err := g.choose(lastProvider)
		if err != nil {
			return nil, err
		}
		lastProvider = provider

		result, err := g.callOnce(ctx, provider, prompt, text, languages)
		if err == nil {
			return result, nil
		}
		lastErr = err
		g.breakers[provider.Name()].RecordFailure()
		g.stats.Increment(stats.APIFail, 1)

		log.Warnf("%s %s attempt %d/%d failed for [%v]: %v", logcolors.LogGateway,
			logcolors.ProviderPrefix(provider.Name()), attempt, maxAttempts, languages, err)

		if attempt < maxAttempts {
			if err := sleepBackoff(ctx, g.retryDelay, attempt); err != nil {
				return nil, err
			}
		}
	}

	return nil, &ProviderError{
		Provider:  lastProvider.Name(),
		Languages: languages,
		Err:       lastErr,
	}
}

// callOnce runs a single admission + request + parse cycle against one
// provider. The rate limiter slot is released on every exit path.
func (g *Gateway) callOnce(ctx context.Context, provider Provider, prompt, text string, languages []string) (map[string]string, error) {
	callCtx := ctx
	if g.requestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.requestTimeout)
		defer cancel()
	}

	if err := g.global.Wait(callCtx); err != nil {
		return nil, wrapAdmissionErr(ctx, err)
	}
	if err := g.limiter.Acquire(callCtx, provider.Name()); err != nil {
		return nil, wrapAdmissionErr(ctx, err)
	}
	defer g.limiter.Release(provider.Name())

	start := time.Now()
	raw, usage, err := provider.Complete(callCtx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	result, err := parseTranslations(raw, languages)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			log.Debugf("%s %s unparsable response: %s", logcolors.LogGateway,
				logcolors.ProviderPrefix(provider.Name()), utils.Truncate(parseErr.Raw, 500))
		}
		return nil, err
	}

	g.breakers[provider.Name()].RecordSuccess()
	g.stats.Increment(stats.APISuccess, 1)
	g.stats.RecordAPITime(elapsed)
	g.stats.Increment(stats.TotalPromptTokens, int64(usage.PromptTokens))
	g.stats.Increment(stats.TotalResponseTokens, int64(usage.ResponseTokens))

	if g.observer != nil && len(result) > 0 && usage.ResponseTokens > 0 {
		perLanguage := usage.ResponseTokens / len(result)
		for lang := range result {
			g.observer.ObserveResponse(text, lang, perLanguage)
		}
	}

	log.Debugf("%s %s translated [%v] in %v (prompt=%d response=%d tokens)", logcolors.LogGateway,
		logcolors.ProviderPrefix(provider.Name()), languages, elapsed.Round(time.Millisecond),
		usage.PromptTokens, usage.ResponseTokens)

	return result, nil
}

// wrapAdmissionErr distinguishes a rate-limit wait that ran out of time from
// an external cancellation.
func wrapAdmissionErr(parent context.Context, err error) error {
	if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return ErrRateLimitTimeout
	}
	return err
}

func sleepBackoff(ctx context.Context, base time.Duration, attempt int) error {
	delay := base << (attempt - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"language-translator-go/batch"
	"language-translator-go/cache"
	"language-translator-go/circuitbreaker"
	"language-translator-go/estimator"
	"language-translator-go/gateway"
	"language-translator-go/localization"
	"language-translator-go/logcolors"
	"language-translator-go/processor"
	"language-translator-go/ratelimit"
	"language-translator-go/stats"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// run wires the cache, gateway and processor together, translates every
// discovered file and shuts down with a guaranteed cache flush.
func run(ctx context.Context) error {
	st := stats.Get()

	tc, err := cache.Open(flagCacheFile, conf.FeatureFlags.CacheCompression, st)
	if err != nil {
		return fmt.Errorf("opening translation cache: %w", err)
	}
	defer shutdown(tc, st)

	if err := st.Load(tc.DB()); err != nil {
		log.Warnf("%s Could not load persisted stats: %v", logcolors.LogStats, err)
	}

	if flagStatsAddr != "" {
		startStatsServer(flagStatsAddr, st, tc)
	}

	est := estimator.New(conf.MaxAllowedTokens())
	gw, err := buildGateway(ctx, est)
	if err != nil {
		return err
	}

	scheduler := batch.New(batch.Config{
		Translator: gw,
		Store:      tc,
		Sizer:      est,
		Retries:    conf.Batch.BatchRetries,
	})

	paths, err := localization.Discover(flagDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.Warnf("%s No Localization.txt files found under %s", logcolors.LogFile, flagDir)
		return nil
	}

	var docs []processor.Document
	for _, path := range paths {
		doc, err := localization.Load(path)
		if err != nil {
			log.Errorf("%s Skipping %s: %v", logcolors.LogFile, path, err)
			continue
		}
		docs = append(docs, doc)
	}

	proc := processor.New(tc, scheduler, st, flagWorkers)
	if err := proc.Run(ctx, docs); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warnf("%s Interrupted, shutting down", logcolors.LogServer)
			return nil
		}
		return err
	}

	log.Infof("%s Done: %d files, %d translations, cache hit rate %.1f%%",
		logcolors.LogServer, st.Value(stats.FilesProcessed),
		st.Value(stats.TotalTranslations), st.CacheHitRate())
	return nil
}

// buildGateway constructs every provider that has an API key configured and
// validates them. Only providers that pass the probe are ever used.
func buildGateway(ctx context.Context, est *estimator.Estimator) (*gateway.Gateway, error) {
	var providers []gateway.Provider
	windows := make(map[string]*ratelimit.Window)

	if conf.Providers.OpenAIAPIKey != "" {
		providers = append(providers, gateway.NewOpenAIProvider(
			conf.Providers.OpenAIAPIKey, conf.Providers.OpenAIModel, conf.Tokens.MaxTokens))
		windows[gateway.ProviderNameOpenAI] = ratelimit.NewWindow(
			conf.RateLimit.OpenAIMaxCalls,
			time.Duration(conf.RateLimit.OpenAITimeFrameSecs)*time.Second)
	}
	if conf.Providers.GeminiAPIKey != "" {
		gp, err := gateway.NewGeminiProvider(ctx,
			conf.Providers.GeminiAPIKey, conf.Providers.GeminiModel, conf.Tokens.MaxTokens)
		if err != nil {
			log.Errorf("%s Could not initialize gemini client: %v", logcolors.LogProbe, err)
		} else {
			providers = append(providers, gp)
			windows[gateway.ProviderNameGemini] = ratelimit.NewWindow(
				conf.RateLimit.GeminiMaxCalls,
				time.Duration(conf.RateLimit.GeminiTimeFrameSecs)*time.Second)
		}
	}
	if len(providers) == 0 {
		return nil, errors.New("no provider API keys configured, set OPENAI_API_KEY or GEMINI_API_KEY")
	}

	gw := gateway.New(gateway.Config{
		Providers: providers,
		Limiter:   ratelimit.NewLimiter(windows),
		GlobalLimiter: rate.NewLimiter(
			rate.Limit(conf.RateLimit.GlobalPerSecond), conf.RateLimit.GlobalBurst),
		Stats:          stats.Get(),
		Observer:       est,
		RequestTimeout: conf.ProviderRequestTimeout(),
		RetryDelay:     conf.RetryDelay(),
		BreakerConfig: circuitbreaker.Config{
			Threshold: 5,
			Cooldown:  time.Minute,
		},
	})

	if err := gw.Validate(ctx); err != nil {
		return nil, fmt.Errorf("provider validation: %w", err)
	}
	log.Infof("%s Using providers: %v", logcolors.LogProbe, gw.ValidProviders())
	return gw, nil
}

// shutdown flushes the cache and persists stats. It runs on every exit path,
// including interrupts, so completed translations are never lost.
func shutdown(tc *cache.TranslationCache, st *stats.Stats) {
	entries := tc.Len()
	if err := st.Save(tc.DB()); err != nil {
		log.Errorf("%s Failed to persist stats: %v", logcolors.LogStats, err)
	}
	if err := tc.Flush(); err != nil {
		log.Errorf("%s Failed to flush cache: %v", logcolors.LogCache, err)
	}
	if err := tc.Close(); err != nil {
		log.Errorf("%s Failed to close cache: %v", logcolors.LogCache, err)
	}
	log.Infof("%s Cache flushed (%d entries)", logcolors.LogCache, entries)
}

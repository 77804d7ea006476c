package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Providers struct {
		OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" default:""`
		OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
		GeminiAPIKey string `envconfig:"GEMINI_API_KEY" default:""`
		GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
		// Per-call deadline for a single provider request, including the
		// rate limiter wait.
		RequestTimeoutSecs int `envconfig:"PROVIDER_REQUEST_TIMEOUT_SECS" default:"120"`
	}

	Tokens struct {
		MaxTokens int `envconfig:"MAX_TOKENS" default:"1000"`
		// Fraction of MAX_TOKENS that batches may consume. The remainder
		// is headroom for the model's generation ceiling.
		SafetyFactor float64 `envconfig:"TOKEN_SAFETY_FACTOR" default:"0.65"`
	}

	RateLimit struct {
		OpenAIMaxCalls      int `envconfig:"OPENAI_THROTTLE_MAX_CALLS" default:"10"`
		OpenAITimeFrameSecs int `envconfig:"OPENAI_THROTTLE_TIME_FRAME_SECS" default:"10"`
		GeminiMaxCalls      int `envconfig:"GEMINI_THROTTLE_MAX_CALLS" default:"10"`
		GeminiTimeFrameSecs int `envconfig:"GEMINI_THROTTLE_TIME_FRAME_SECS" default:"10"`
		// Global smoothing tier across both providers, on top of the
		// per-provider windows.
		GlobalPerSecond int `envconfig:"GLOBAL_RATE_LIMIT_PER_SECOND" default:"5"`
		GlobalBurst     int `envconfig:"GLOBAL_RATE_LIMIT_BURST" default:"5"`
	}

	Batch struct {
		BatchRetries   int `envconfig:"BATCH_RETRIES" default:"3"`
		RetryDelaySecs int `envconfig:"RETRY_DELAY_SECS" default:"1"`
	}

	Workers int `envconfig:"MAX_WORKERS" default:"4"`

	Cache struct {
		File string `envconfig:"CACHE_FILE" default:"translation_cache.db"`
	}

	StatsAddr string `envconfig:"STATS_ADDR" default:""`

	FeatureFlags struct {
		CacheCompression bool `envconfig:"FF_CACHE_COMPRESSION" default:"false"`
	}
}

// MaxAllowedTokens is the per-batch token budget: the configured maximum
// reduced by the safety factor.
func (c Config) MaxAllowedTokens() int {
	factor := c.Tokens.SafetyFactor
	if factor <= 0 || factor > 1 {
		factor = 0.65
	}
	return int(float64(c.Tokens.MaxTokens) * factor)
}

func (c Config) ProviderRequestTimeout() time.Duration {
	return time.Duration(c.Providers.RequestTimeoutSecs) * time.Second
}

func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.Batch.RetryDelaySecs) * time.Second
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}

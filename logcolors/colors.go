package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"

	// Bright variants for more color variety
	BrightGreen   = "\033[92m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"

	Red       = "\033[31m"
	BrightRed = "\033[91m"
)

// Cache-related log prefixes
const (
	LogCacheInit = Blue + "[Cache:Init]" + Reset
	LogCache     = Blue + "[Cache]" + Reset
	LogCacheLoad = Blue + "[Cache:Load]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// ProviderPrefix returns a colored provider prefix for gateway log messages.
// The same provider name always gets the same color.
func ProviderPrefix(name string) string {
	colors := []string{Green, Blue, Cyan, BrightGreen, BrightBlue, BrightCyan}
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	return colors[hash%len(colors)] + "[" + name + "]" + Reset
}

// Batching and estimation log prefixes
const (
	LogToken  = Cyan + "[Token]" + Reset
	LogBatch  = Green + "[Batch]" + Reset
	LogSingle = BrightCyan + "[Single]" + Reset
	LogEntry  = Blue + "[Entry]" + Reset
)

// Gateway log prefixes
const (
	LogGateway  = Purple + "[Gateway]" + Reset
	LogProbe    = Purple + "[Probe]" + Reset
	LogFallback = Cyan + "[Fallback]" + Reset
	LogWarning  = Red + "[Warning]" + Reset
)

// Worker/file processing log prefixes
const (
	LogWorker = Green + "[Worker]" + Reset
	LogFile   = Blue + "[File]" + Reset
	LogWriter = BrightBlue + "[Writer]" + Reset
)

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
)

// Package ratelimit implements sliding-window admission control for the
// translation providers: at most maxCalls calls may start within any trailing
// timeFrame interval.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"language-translator-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// Window is a sliding-window limiter for a single provider.
type Window struct {
	maxCalls  int
	timeFrame time.Duration

	mu       sync.Mutex
	starts   []time.Time
	inflight int
}

// NewWindow creates a sliding window admitting maxCalls starts per trailing
// timeFrame.
func NewWindow(maxCalls int, timeFrame time.Duration) *Window {
	if maxCalls < 1 {
		maxCalls = 1
	}
	if timeFrame <= 0 {
		timeFrame = time.Second
	}
	return &Window{
		maxCalls:  maxCalls,
		timeFrame: timeFrame,
	}
}

// prune drops start timestamps that have slid out of the trailing window.
// Callers must hold w.mu.
func (w *Window) prune(now time.Time) {
	cut := 0
	for cut < len(w.starts) && now.Sub(w.starts[cut]) >= w.timeFrame {
		cut++
	}
	if cut > 0 {
		w.starts = append(w.starts[:0], w.starts[cut:]...)
	}
}

// Acquire blocks until the caller is admitted or ctx is done. Every
// successful Acquire must be paired with exactly one Release on all exit
// paths.
func (w *Window) Acquire(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := time.Now()
		w.prune(now)
		if len(w.starts) < w.maxCalls && w.inflight < w.maxCalls {
			w.starts = append(w.starts, now)
			w.inflight++
			w.mu.Unlock()
			return nil
		}

		var wait time.Duration
		if len(w.starts) >= w.maxCalls {
			wait = w.starts[0].Add(w.timeFrame).Sub(now)
		} else {
			// Window has room but too many calls are still in flight;
			// poll until one releases.
			wait = 50 * time.Millisecond
		}
		w.mu.Unlock()

		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		log.Debugf("%s Window full, waiting %v for admission", logcolors.LogRateLimit, wait.Round(time.Millisecond))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Release marks a previously admitted call as complete.
func (w *Window) Release() {
	w.mu.Lock()
	if w.inflight > 0 {
		w.inflight--
	}
	w.mu.Unlock()
}

// Remaining reports how many calls could start right now.
func (w *Window) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(time.Now())
	remaining := w.maxCalls - len(w.starts)
	if r := w.maxCalls - w.inflight; r < remaining {
		remaining = r
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Limiter holds one sliding window per provider.
type Limiter struct {
	windows map[string]*Window
}

// NewLimiter builds a limiter from per-provider windows.
func NewLimiter(windows map[string]*Window) *Limiter {
	return &Limiter{windows: windows}
}

// Acquire blocks until the named provider's window admits a call.
func (l *Limiter) Acquire(ctx context.Context, provider string) error {
	w, ok := l.windows[provider]
	if !ok {
		return fmt.Errorf("unknown provider %q", provider)
	}
	return w.Acquire(ctx)
}

// Release unwinds one admission for the named provider. Unknown providers are
// ignored so error paths can always call it.
func (l *Limiter) Release(provider string) {
	if w, ok := l.windows[provider]; ok {
		w.Release()
	}
}

// Remaining reports current admission headroom for the named provider.
func (l *Limiter) Remaining(provider string) int {
	if w, ok := l.windows[provider]; ok {
		return w.Remaining()
	}
	return 0
}

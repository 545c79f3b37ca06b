package api

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// RateLimiter is an in-memory sliding window limiter keyed by Grafana URL,
// so one busy instance cannot starve requests aimed at another.
type RateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	requests map[string][]time.Time
	now      func() time.Time
}

func NewRateLimiter(window time.Duration) *RateLimiter {
	return &RateLimiter{
		window:   window,
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Limit reads the per-window request cap from RATE_LIMIT. Zero means
// disabled. Read on every call so the limit can change without a restart.
func (l *RateLimiter) Limit() int {
	v := os.Getenv("RATE_LIMIT")
	if v == "" {
		return 0
	}
	limit, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return limit
}

// Allow records the request and reports whether it fits the window.
func (l *RateLimiter) Allow(grafanaURL string) bool {
	limit := l.Limit()
	if limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.requests[grafanaURL][:0]
	for _, ts := range l.requests[grafanaURL] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.requests[grafanaURL] = kept

	if len(kept) >= limit {
		return false
	}

	l.requests[grafanaURL] = append(kept, now)
	return true
}

// RetryAfter reports the seconds until the oldest recorded request slides
// out of the window.
func (l *RateLimiter) RetryAfter(grafanaURL string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamps := l.requests[grafanaURL]
	if len(timestamps) == 0 {
		return 0
	}

	oldest := timestamps[0]
	for _, ts := range timestamps[1:] {
		if ts.Before(oldest) {
			oldest = ts
		}
	}

	remaining := int(l.window.Seconds() - l.now().Sub(oldest).Seconds())
	if remaining < 1 {
		return 1
	}
	return remaining
}

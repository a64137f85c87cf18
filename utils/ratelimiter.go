package utils

import (
	"sync"
	"time"
)

// How often the limiter inserts a longer cool-down pause. Sustained scraping
// against one host without these pauses is what gets an IP blocked.
const longPauseEvery = 20

// RateLimiter enforces a minimum delay between consecutive requests, with a
// longer pause every longPauseEvery calls.
type RateLimiter struct {
	mu        sync.Mutex
	lastCall  time.Time
	delay     time.Duration
	longPause time.Duration
	calls     int
}

// NewRateLimiter creates a RateLimiter with the given delay in milliseconds.
// The periodic long pause is 10x the base delay.
func NewRateLimiter(delayMs int) *RateLimiter {
	d := time.Duration(delayMs) * time.Millisecond
	return &RateLimiter{
		delay:     d,
		longPause: 10 * d,
	}
}

// Wait blocks until enough time has passed since the last request.
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	want := r.delay
	if r.calls%longPauseEvery == 0 {
		want = r.longPause
	}

	elapsed := time.Since(r.lastCall)
	if elapsed < want {
		time.Sleep(want - elapsed)
	}
	r.lastCall = time.Now()
}

package utils

import "sync"

// URLTracker records detail-page URLs already fetched in a run. Listing pages
// often point several sailings at the same detail page, and a rendered fetch
// is expensive enough that each URL should be visited once.
type URLTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewURLTracker() *URLTracker {
	return &URLTracker{seen: make(map[string]struct{})}
}

// Add records url and reports whether it was new. False means the page was
// already fetched this run and the caller should skip it.
func (t *URLTracker) Add(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.seen[url]; dup {
		return false
	}
	t.seen[url] = struct{}{}
	return true
}

// Count reports how many distinct URLs have been fetched.
func (t *URLTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

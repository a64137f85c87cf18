package fetch

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher turns a URL into a parseable document. Client covers
// server-rendered pages, Browser covers pages assembled by client-side
// JavaScript; extractors pick one per source and stay agnostic otherwise.
type PageFetcher interface {
	Page(ctx context.Context, url string) (*goquery.Document, error)
}

// Error is a typed fetch failure carrying the URL and, for HTTP-level
// failures, the status code.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

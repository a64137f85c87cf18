package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"cruise-deal-scraper/utils"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// Client fetches pages over plain HTTP with a stable browser-like identity,
// a per-host token bucket, and exponential-backoff retries.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxRetries int
	logger     *utils.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
}

// NewClient creates a Client. requestsPerSec bounds the request rate per host.
func NewClient(userAgent string, timeout time.Duration, maxRetries int, requestsPerSec float64, logger *utils.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		maxRetries: maxRetries,
		logger:     logger,
		limiters:   make(map[string]*rate.Limiter),
		perHost:    rate.Limit(requestsPerSec),
	}
}

func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(c.perHost, 1)
		c.limiters[host] = l
	}
	return l
}

func (c *Client) setIdentity(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// get performs one rate-limited request and hands the body to consume.
// The body reader is only valid inside consume.
func (c *Client) get(ctx context.Context, rawURL string, accept, referer string, consume func(io.Reader) error) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &Error{URL: rawURL, Err: err}
	}
	if err := c.limiter(u.Host).Wait(ctx); err != nil {
		return err
	}

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return &Error{URL: rawURL, Err: err}
		}
		c.setIdentity(req)
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		if referer != "" {
			req.Header.Set("Referer", referer)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &Error{URL: rawURL, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &Error{URL: rawURL, StatusCode: resp.StatusCode}
		}
		return consume(resp.Body)
	}

	return utils.RetryWithBackoff(ctx, c.maxRetries, attempt, c.logger)
}

// Page fetches a URL and parses it into a document.
func (c *Client) Page(ctx context.Context, rawURL string) (*goquery.Document, error) {
	var doc *goquery.Document
	err := c.get(ctx, rawURL, "", "", func(body io.Reader) error {
		d, err := goquery.NewDocumentFromReader(body)
		if err != nil {
			return fmt.Errorf("parse %s: %w", rawURL, err)
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetJSON fetches a URL and decodes the JSON response into v. API extractors
// use this for REST and GET-style GraphQL endpoints.
func (c *Client) GetJSON(ctx context.Context, rawURL, referer string, v interface{}) error {
	return c.get(ctx, rawURL, "application/json", referer, func(body io.Reader) error {
		if err := json.NewDecoder(body).Decode(v); err != nil {
			return fmt.Errorf("decode %s: %w", rawURL, err)
		}
		return nil
	})
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source reads a question-pool corpus from a local file, standard
// input, or an HTTP(S) URL.
package source

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/question-bank/pkg/types"
)

// Stdin is the location that selects standard input.
const Stdin = "-"

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 and 503 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const (
	defaultMaxRetries = 5
	defaultTimeout    = 30 * time.Second
	defaultUserAgent  = "question-bank/dev"
)

// Reader resolves corpus locations.
type Reader struct {
	cfg    types.HTTPConfig
	client *http.Client
	stdin  io.Reader
}

// NewReader returns a Reader using cfg for HTTP locations. A nil client
// gets one with cfg.Timeout (default 30s).
func NewReader(cfg types.HTTPConfig, client *http.Client) *Reader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Reader{cfg: cfg, client: client, stdin: os.Stdin}
}

// WithStdin replaces the stream read for the "-" location.
func (r *Reader) WithStdin(in io.Reader) *Reader {
	r.stdin = in
	return r
}

// Read returns the corpus at location: "-" or "" reads standard input,
// http:// and https:// URLs are fetched, anything else is a file path.
func (r *Reader) Read(ctx context.Context, location string) (string, error) {
	switch {
	case location == "" || location == Stdin:
		data, err := io.ReadAll(r.stdin)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return string(data), nil
	case IsURL(location):
		return r.fetch(ctx, location)
	default:
		data, err := os.ReadFile(location)
		if err != nil {
			return "", fmt.Errorf("reading corpus %s: %w", location, err)
		}
		return string(data), nil
	}
}

// IsURL reports whether location names an HTTP(S) resource.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func (r *Reader) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "text/plain")

	resp, err := doWithRetry(ctx, r.client, req, r.cfg.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("fetching %s: HTTP %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", url, err)
	}
	return string(data), nil
}

// retryable reports whether a status warrants another attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// doWithRetry executes req and retries on 429 and 503 with exponential
// backoff starting at RetryBaseDelay. After maxRetries the last response
// is returned so the caller can report its status.
func doWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// Package fetch implements the tiered fallback transport used by the
// scrapers: an ordered list of transports (CORS proxies, then a direct
// request with a browser identity) tried against an ordered list of
// alternate upstream hosts until one yields usable content.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	httputil "github.com/nawka12/moonaroh-com/pkg/http"
)

// ErrSourceUnavailable signals that every host and transport combination
// was exhausted. Callers use it to distinguish "transport broken" from
// "nothing found".
var ErrSourceUnavailable = errors.New("source unavailable")

// DefaultAttemptTimeout bounds a single transport attempt.
const DefaultAttemptTimeout = 10 * time.Second

// Transport is one way of reaching an upstream URL.
type Transport struct {
	Name    string
	Wrap    func(target string) string
	Headers map[string]string
}

// Proxy returns a transport that routes the target URL through a CORS
// proxy prefix.
func Proxy(name, prefix string) Transport {
	return Transport{
		Name: name,
		Wrap: func(target string) string {
			return prefix + url.QueryEscape(target)
		},
	}
}

// Direct returns a transport that requests the target URL itself, with
// spoofed browser identity headers.
func Direct() Transport {
	return Transport{
		Name:    "direct",
		Wrap:    func(target string) string { return target },
		Headers: httputil.BrowserHeaders(),
	}
}

// Tiered walks hosts and transports in order until an attempt succeeds.
type Tiered struct {
	Client     *httputil.Client
	Transports []Transport
	// Hosts are alternate upstream base URLs. Empty means the path passed
	// to Fetch is already a complete URL.
	Hosts   []string
	Timeout time.Duration
	// Validate, when set, must accept the body for an attempt to count as
	// a success. An empty-but-well-formed page is a failure and the next
	// tier is tried.
	Validate func(body []byte) error
}

// Result is one successful fetch, with the host that served it.
type Result struct {
	Body []byte
	Host string
}

// Fetch tries each host in order, and within a host each transport in
// order. Attempts are sequential, never raced. Returns
// ErrSourceUnavailable once everything is exhausted.
func (t *Tiered) Fetch(ctx context.Context, path string) (*Result, error) {
	for _, host := range t.hosts() {
		for _, transport := range t.Transports {
			body, err := t.attempt(ctx, transport, host+path)
			if err != nil {
				slog.Debug("Fetch tier failed",
					"transport", transport.Name, "host", host, "error", err)
				continue
			}
			slog.Debug("Fetch tier succeeded", "transport", transport.Name, "host", host)
			return &Result{Body: body, Host: host}, nil
		}
	}
	return nil, fmt.Errorf("all transports exhausted for %s: %w", path, ErrSourceUnavailable)
}

// PairResult is one successful dual-feed fetch within a single tier.
type PairResult struct {
	Bodies [2][]byte
	Host   string
}

// FetchPair fetches two paths as a joint concurrent pair within each
// tier: both must succeed (and validate) for the tier to succeed.
func (t *Tiered) FetchPair(ctx context.Context, pathA, pathB string) (*PairResult, error) {
	for _, host := range t.hosts() {
		for _, transport := range t.Transports {
			bodies, err := t.DoPair(ctx, transport, host+pathA, host+pathB)
			if err != nil {
				slog.Debug("Fetch pair tier failed",
					"transport", transport.Name, "host", host, "error", err)
				continue
			}
			return &PairResult{Bodies: bodies, Host: host}, nil
		}
	}
	return nil, fmt.Errorf("all transports exhausted for %s: %w", pathA, ErrSourceUnavailable)
}

// Do runs a single attempt with one transport against a complete URL.
// Exposed for callers that need their own tier-walking policy (the social
// scraper decides tier success by extracted record count, not body shape).
func (t *Tiered) Do(ctx context.Context, transport Transport, target string) ([]byte, error) {
	return t.attempt(ctx, transport, target)
}

// DoPair runs one transport against two URLs as a joint concurrent pair.
// Both must succeed for the pair to succeed.
func (t *Tiered) DoPair(ctx context.Context, transport Transport, targetA, targetB string) ([2][]byte, error) {
	type outcome struct {
		index int
		body  []byte
		err   error
	}
	results := make(chan outcome, 2)
	for i, target := range []string{targetA, targetB} {
		go func(i int, target string) {
			body, err := t.attempt(ctx, transport, target)
			results <- outcome{index: i, body: body, err: err}
		}(i, target)
	}

	var bodies [2][]byte
	var firstErr error
	for range 2 {
		res := <-results
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		bodies[res.index] = res.body
	}
	if firstErr != nil {
		return bodies, firstErr
	}
	return bodies, nil
}

func (t *Tiered) hosts() []string {
	if len(t.Hosts) == 0 {
		return []string{""}
	}
	return t.Hosts
}

func (t *Tiered) attempt(ctx context.Context, transport Transport, target string) ([]byte, error) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, transport.Wrap(target), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range transport.Headers {
		req.Header.Set(key, value)
	}

	resp, err := t.Client.DoRequest(req)
	if err != nil {
		return nil, err
	}

	if err := httputil.EnsureStatusOK(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	body, err := httputil.ReadDecodedBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}
	if t.Validate != nil {
		if err := t.Validate(body); err != nil {
			return nil, fmt.Errorf("response rejected: %w", err)
		}
	}
	return body, nil
}

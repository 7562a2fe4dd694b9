// Package merch scrapes the merchandise storefront through a chain of
// unreliable transports, bounded by a hard ceiling so a slow shop page
// never stalls the dashboard: when the ceiling wins, stale cached data is
// served and the full pipeline continues in the background.
package merch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nawka12/moonaroh-com/pkg/cache"
	"github.com/nawka12/moonaroh-com/pkg/fetch"
	httputil "github.com/nawka12/moonaroh-com/pkg/http"
)

const (
	// OverallCeiling bounds the foreground fetch before falling back to
	// stale data plus a background refresh.
	OverallCeiling = 3 * time.Second

	// attemptTimeout bounds each transport attempt against the shop.
	attemptTimeout = 10 * time.Second
)

// Service fetches and caches merchandise listings.
type Service struct {
	cache     *cache.Cache
	tiered    *fetch.Tiered
	extractor *Extractor
	shopURL   string
	ceiling   time.Duration

	// OnUpdate, when set, is called with fresh items after a successful
	// background refresh so the rendering layer can patch the view.
	OnUpdate func([]Item)

	mu       sync.Mutex
	inflight *refreshTask
}

// refreshTask is the single-slot in-flight background attempt. A new
// request joins the running task instead of re-launching.
type refreshTask struct {
	done  chan struct{}
	items []Item
	err   error
}

// pipelineResult carries one pipeline outcome between goroutines.
type pipelineResult struct {
	items []Item
	err   error
}

// Config carries the shop endpoints and transport chain.
type Config struct {
	ShopURL  string
	ShopBase string
	Proxies  []string
	Keywords []string
}

// NewService creates the merchandise service.
func NewService(client *httputil.Client, c *cache.Cache, cfg Config) *Service {
	transports := make([]fetch.Transport, 0, len(cfg.Proxies)+1)
	for i, proxy := range cfg.Proxies {
		name := "proxy"
		if i > 0 {
			name = "backup-proxy"
		}
		transports = append(transports, fetch.Proxy(name, proxy))
	}
	transports = append(transports, fetch.Direct())

	return &Service{
		cache:     c,
		shopURL:   cfg.ShopURL,
		ceiling:   OverallCeiling,
		extractor: NewExtractor(cfg.ShopBase, cfg.Keywords),
		tiered: &fetch.Tiered{
			Client:     client,
			Transports: transports,
			Timeout:    attemptTimeout,
		},
	}
}

// Get returns merchandise listings, racing the full pipeline against the
// overall ceiling. When the ceiling wins or the pipeline fails, the best
// stale data available is returned and the pipeline keeps running in the
// background; only when no stored data exists at all is the result empty.
func (s *Service) Get(ctx context.Context) []Item {
	// A background refresh already running owns the upstream: serve the
	// best stored data, or join the running attempt when there is none.
	if task := s.current(); task != nil {
		if items := s.stored(); len(items) > 0 {
			slog.Debug("Background refresh in progress, returning stored merchandise")
			return items
		}
		select {
		case <-task.done:
			return task.items
		case <-ctx.Done():
			return nil
		}
	}

	resultCh := make(chan pipelineResult, 1)
	pipelineCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go func() {
		items, err := s.pipeline(pipelineCtx)
		resultCh <- pipelineResult{items: items, err: err}
	}()

	timer := time.NewTimer(s.ceiling)
	defer timer.Stop()

	select {
	case result := <-resultCh:
		cancel()
		if result.err != nil {
			slog.Warn("Merchandise pipeline failed", "error", result.err)
			return s.stored()
		}
		return result.items

	case <-timer.C:
		// The ceiling won. Hand the already-running pipeline over to the
		// background slot rather than abandoning it.
		slog.Debug("Merchandise fetch hit overall ceiling, continuing in background")
		s.adopt(resultCh, cancel)
		return s.stored()

	case <-ctx.Done():
		cancel()
		return s.stored()
	}
}

// Refresh starts (or joins) the single background refresh attempt and
// returns a channel closed when it completes.
func (s *Service) Refresh() <-chan struct{} {
	s.mu.Lock()
	if s.inflight != nil {
		done := s.inflight.done
		s.mu.Unlock()
		return done
	}
	task := &refreshTask{done: make(chan struct{})}
	s.inflight = task
	s.mu.Unlock()

	go func() {
		defer s.finish(task)
		task.items, task.err = s.pipeline(context.Background())
		if task.err != nil {
			slog.Warn("Background merchandise refresh failed", "error", task.err)
		}
	}()
	return task.done
}

// adopt installs an already-running pipeline as the in-flight background
// task. If another background attempt is somehow already registered, the
// orphaned pipeline's result is simply discarded when it lands.
func (s *Service) adopt(resultCh <-chan pipelineResult, cancel context.CancelFunc) {
	s.mu.Lock()
	if s.inflight != nil {
		s.mu.Unlock()
		cancel()
		return
	}
	task := &refreshTask{done: make(chan struct{})}
	s.inflight = task
	s.mu.Unlock()

	go func() {
		defer cancel()
		defer s.finish(task)
		result := <-resultCh
		task.items, task.err = result.items, result.err
		if task.err != nil {
			slog.Warn("Background merchandise refresh failed", "error", task.err)
		}
	}()
}

// finish clears the in-flight slot and fires the update hook, regardless
// of outcome.
func (s *Service) finish(task *refreshTask) {
	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()

	if task.err == nil && len(task.items) > 0 && s.OnUpdate != nil {
		s.OnUpdate(task.items)
	}
	close(task.done)
}

func (s *Service) current() *refreshTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

// pipeline is the full fetch path: accept stored data within the
// merchandise freshness window, otherwise walk the transport chain,
// extract listings, and persist them in both record shapes.
func (s *Service) pipeline(ctx context.Context) ([]Item, error) {
	var fresh []Item
	if raw := s.cache.GetWithin(cache.KeyMerch, cache.MerchFreshDuration); raw != nil {
		if err := unmarshalItems(raw, &fresh); err == nil && len(fresh) > 0 {
			slog.Debug("Using stored merchandise within freshness window", "items", len(fresh))
			return fresh, nil
		}
	}

	result, err := s.tiered.Fetch(ctx, s.shopURL)
	if err != nil {
		return nil, fmt.Errorf("could not fetch merchandise from any source: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse shop page: %w", err)
	}

	items := s.extractor.Extract(doc)
	slog.Debug("Extracted merchandise listings", "items", len(items))

	if len(items) > 0 {
		s.cache.Set(cache.KeyMerch, items)
		s.cache.SetLegacyMerch(items)
	}
	return items, nil
}

func unmarshalItems(raw []byte, items *[]Item) error {
	return json.Unmarshal(raw, items)
}

// stored returns the freshest stored listings regardless of age.
func (s *Service) stored() []Item {
	raw := s.cache.Fallback(cache.KeyMerch)
	if raw == nil {
		return nil
	}
	var items []Item
	if err := unmarshalItems(raw, &items); err != nil {
		slog.Warn("Stored merchandise has unexpected shape", "error", err)
		return nil
	}
	return items
}

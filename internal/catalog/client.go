package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/studyvoice/advisor/internal/observe"
)

// searchLimit caps the number of results returned by [Client.Search].
const searchLimit = 50

// Client is the read interface the pipeline and API layer use to consult
// the catalog. All implementations must be safe for concurrent use and must
// degrade to empty results instead of propagating load failures.
type Client interface {
	// All returns every catalog module. Empty when the load failed.
	All(ctx context.Context) []Module

	// Names returns every canonical module name, in document order.
	Names(ctx context.Context) []string

	// ByName returns the module whose name matches exactly (case-insensitive),
	// or failing that the first containment match in either direction.
	ByName(ctx context.Context, name string) (Module, bool)

	// FindPage resolves a handbook page for the given course name using
	// exact, then containment, then word-prefix matching. Returns 0 when no
	// module matches.
	FindPage(ctx context.Context, name string) int

	// Search returns modules whose name contains query (case-insensitive),
	// capped at 50 results. An empty query returns all modules.
	Search(ctx context.Context, query string) []Module

	// Replace swaps the record with the same name for the given module,
	// preserving document order. Returns false when no record matches.
	Replace(ctx context.Context, m Module) bool

	// Ready reports whether the catalog loaded successfully with at least
	// one module. Used by the readiness probe.
	Ready(ctx context.Context) bool
}

// CachedClient loads the catalog from a [Source] on first use and caches the
// result for the process lifetime. Concurrent first callers share a single
// in-flight fetch. A failed load is cached as an empty catalog; there is no
// retry; the session simply runs without catalog support.
type CachedClient struct {
	source  Source
	metrics *observe.Metrics

	flight singleflight.Group

	mu      sync.RWMutex
	loaded  bool
	healthy bool
	modules []Module
}

// Compile-time assertion that CachedClient satisfies the Client interface.
var _ Client = (*CachedClient)(nil)

// ClientOption is a functional option for [NewCachedClient].
type ClientOption func(*CachedClient)

// WithMetrics overrides the metrics instance, mainly for tests.
func WithMetrics(m *observe.Metrics) ClientOption {
	return func(c *CachedClient) {
		c.metrics = m
	}
}

// NewCachedClient returns a [CachedClient] reading from source. The catalog
// is fetched lazily on first access.
func NewCachedClient(source Source, opts ...ClientOption) *CachedClient {
	c := &CachedClient{source: source}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// load returns the cached module list, fetching it on first call. The
// singleflight group collapses concurrent first calls into one fetch.
//
// The returned slice is a published snapshot: readers iterate it without
// holding the lock, so its backing array must never be written to. Replace
// swaps in a fresh copy instead.
func (c *CachedClient) load(ctx context.Context) []Module {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		return c.modules
	}
	c.mu.RUnlock()

	c.flight.Do("load", func() (any, error) {
		start := time.Now()
		modules, err := c.fetch(ctx)
		c.metrics.CatalogLoadDuration.Record(ctx, time.Since(start).Seconds())

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.loaded {
			return nil, nil
		}
		c.loaded = true
		if err != nil {
			slog.Warn("catalog load failed, continuing with empty catalog", "err", err)
			c.modules = nil
			return nil, nil
		}
		c.healthy = len(modules) > 0
		c.modules = modules
		slog.Info("catalog loaded", "modules", len(modules))
		return nil, nil
	})

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modules
}

// fetch retrieves and decodes the catalog document.
func (c *CachedClient) fetch(ctx context.Context) ([]Module, error) {
	data, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// All implements [Client].
func (c *CachedClient) All(ctx context.Context) []Module {
	modules := c.load(ctx)
	out := make([]Module, len(modules))
	copy(out, modules)
	return out
}

// Names implements [Client].
func (c *CachedClient) Names(ctx context.Context) []string {
	modules := c.load(ctx)
	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
	}
	return names
}

// ByName implements [Client].
func (c *CachedClient) ByName(ctx context.Context, name string) (Module, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Module{}, false
	}
	modules := c.load(ctx)

	for _, m := range modules {
		if m.matchesName(name) {
			return m, true
		}
	}

	target := strings.ToLower(name)
	for _, m := range modules {
		ml := strings.ToLower(m.Name)
		if strings.Contains(ml, target) || strings.Contains(target, ml) {
			return m, true
		}
	}
	return Module{}, false
}

// FindPage implements [Client].
func (c *CachedClient) FindPage(ctx context.Context, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0
	}
	modules := c.load(ctx)
	target := strings.ToLower(name)

	for _, m := range modules {
		if strings.ToLower(m.Name) == target {
			return m.Page
		}
	}

	for _, m := range modules {
		ml := strings.ToLower(m.Name)
		if strings.Contains(ml, target) || strings.Contains(target, ml) {
			return m.Page
		}
	}

	words := strings.Fields(target)
	for _, m := range modules {
		moduleWords := strings.Fields(strings.ToLower(m.Name))
		for _, w := range words {
			for _, mw := range moduleWords {
				if strings.HasPrefix(mw, w) || strings.HasPrefix(w, mw) {
					return m.Page
				}
			}
		}
	}
	return 0
}

// Search implements [Client].
func (c *CachedClient) Search(ctx context.Context, query string) []Module {
	modules := c.load(ctx)
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.All(ctx)
	}

	var out []Module
	for _, m := range modules {
		if strings.Contains(strings.ToLower(m.Name), query) {
			out = append(out, m)
			if len(out) == searchLimit {
				break
			}
		}
	}
	return out
}

// Replace implements [Client].
func (c *CachedClient) Replace(ctx context.Context, m Module) bool {
	c.load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.modules {
		if existing.matchesName(m.Name) {
			if m.Page <= 0 {
				m.Page = existing.Page
			}
			next := make([]Module, len(c.modules))
			copy(next, c.modules)
			next[i] = m
			c.modules = next
			return true
		}
	}
	return false
}

// Ready implements [Client].
func (c *CachedClient) Ready(ctx context.Context) bool {
	c.load(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

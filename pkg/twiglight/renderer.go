package twiglight

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Renderer holds a template and the settings used to render it. The
// template is never parsed or validated up front. A Renderer is safe for
// concurrent use.
type Renderer struct {
	template     string
	cacheTimeout time.Duration
	cacheKey     string
	forceUpdate  bool
	cache        Cache
	maxDepth     int
	logger       *slog.Logger

	// forced records that the force-update render has happened.
	forced atomic.Bool
	flight singleflight.Group
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCacheTimeout sets how long rendered output stays cached. Zero
// disables caching.
func WithCacheTimeout(d time.Duration) Option {
	return func(r *Renderer) { r.cacheTimeout = d }
}

// WithCacheKey sets an explicit cache key. Without one, the key is derived
// from the template and the flattened values, which costs a hash per render.
func WithCacheKey(key string) Option {
	return func(r *Renderer) { r.cacheKey = key }
}

// WithForceCacheUpdate makes the first render bypass the cache read and
// overwrite the stored entry.
func WithForceCacheUpdate() Option {
	return func(r *Renderer) { r.forceUpdate = true }
}

// WithCache sets the cache backing WithCacheTimeout.
func WithCache(c Cache) Option {
	return func(r *Renderer) { r.cache = c }
}

// WithMaxDepth overrides DefaultMaxDepth. Zero or less means unlimited.
func WithMaxDepth(depth int) Option {
	return func(r *Renderer) { r.maxDepth = depth }
}

// WithLogger sets the logger used to report cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Renderer for template.
func New(template string, opts ...Option) *Renderer {
	r := &Renderer{
		template: template,
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// QuickRender renders template once with default settings.
func QuickRender(template string, tree Tree) (string, error) {
	return New(template).Render(tree)
}

// Template returns the template source.
func (r *Renderer) Template() string { return r.template }

// CacheTimeout returns the configured cache timeout.
func (r *Renderer) CacheTimeout() time.Duration { return r.cacheTimeout }

// CacheKey returns the explicit cache key, or "" when keys are derived.
func (r *Renderer) CacheKey() string { return r.cacheKey }

// ForceCacheUpdate reports whether the first render refreshes the cache.
func (r *Renderer) ForceCacheUpdate() bool { return r.forceUpdate }

// Render returns the template with every resolvable placeholder replaced by
// the text of the matching value in tree. Unresolved placeholders are left
// in place. The only error is ErrDepthExceeded.
func (r *Renderer) Render(tree Tree) (string, error) {
	return r.RenderContext(context.Background(), tree)
}

// RenderContext is Render with a context. The context only matters when a
// cache is configured: it is passed to the cache and bounds the wait for a
// concurrent render of the same key.
func (r *Renderer) RenderContext(ctx context.Context, tree Tree) (string, error) {
	values, err := FlattenWithLimit(tree, r.maxDepth)
	if err != nil {
		return "", err
	}
	if !r.caching() {
		return substitute(r.template, values), nil
	}
	return r.renderCached(ctx, values)
}

// Resolve reports, in template order, how each placeholder occurrence
// resolves against tree.
func (r *Renderer) Resolve(tree Tree) ([]Resolution, error) {
	values, err := FlattenWithLimit(tree, r.maxDepth)
	if err != nil {
		return nil, err
	}
	return resolve(r.template, values), nil
}

// Placeholders returns the distinct well-formed placeholder paths in the
// template, in order of first appearance.
func (r *Renderer) Placeholders() []string {
	seen := make(map[string]struct{})
	var paths []string
	for _, res := range resolve(r.template, nil) {
		u := res.(Unresolved)
		if _, ok := seen[u.Path]; ok {
			continue
		}
		seen[u.Path] = struct{}{}
		paths = append(paths, u.Path)
	}
	return paths
}

func (r *Renderer) caching() bool {
	return r.cache != nil && r.cacheTimeout > 0
}

func (r *Renderer) renderCached(ctx context.Context, values FlatTokenMap) (string, error) {
	key := r.cacheKey
	if key == "" {
		key = DeriveCacheKey(r.template, values)
	}

	force := r.forceUpdate && r.forced.CompareAndSwap(false, true)
	if !force {
		out, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "render cache read failed", "key", key, "error", err)
		case ok:
			return out, nil
		}
	}

	// The fill outlives any single caller.
	fillCtx := context.WithoutCancel(ctx)
	ch := r.flight.DoChan(key, func() (any, error) {
		out := substitute(r.template, values)
		if err := r.cache.Set(fillCtx, key, out, r.cacheTimeout); err != nil {
			r.logger.WarnContext(fillCtx, "render cache write failed", "key", key, "error", err)
		}
		return out, nil
	})

	select {
	case res := <-ch:
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

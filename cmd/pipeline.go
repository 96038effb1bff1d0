package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/conneroisu/twiglight/internal/config"
	twigerrors "github.com/conneroisu/twiglight/internal/errors"
	"github.com/conneroisu/twiglight/internal/logging"
	"github.com/conneroisu/twiglight/internal/values"
	"github.com/conneroisu/twiglight/pkg/twiglight"
)

// pipeline loads values, applies the configured transforms and renders
// templates with the configured cache. The Renderer is kept across renders
// and rebuilt only when the template text changes, so the force-update
// latch and the merging of concurrent renders span the whole process.
type pipeline struct {
	cfg       *config.Config
	logger    *logging.TwigLogger
	sanitizer *values.Sanitizer
	cache     twiglight.Cache
	closer    io.Closer

	mu      sync.Mutex
	current *twiglight.Renderer
	forced  bool
}

// newValuePipeline builds a pipeline that loads values but has no render
// cache.
func newValuePipeline(cfg *config.Config, logger *logging.TwigLogger) (*pipeline, error) {
	sanitizer, err := values.NewSanitizer(cfg.Values.SanitizeHTML)
	if err != nil {
		return nil, err
	}
	return &pipeline{cfg: cfg, logger: logger, sanitizer: sanitizer}, nil
}

// newPipeline builds a pipeline and opens the configured render cache.
func newPipeline(ctx context.Context, cfg *config.Config, logger *logging.TwigLogger) (*pipeline, error) {
	p, err := newValuePipeline(cfg, logger)
	if err != nil {
		return nil, err
	}

	switch cfg.Render.CacheBackend {
	case config.CacheBackendMemory:
		p.cache = twiglight.NewMemoryCache(cfg.Render.CacheMaxBytes)
	case config.CacheBackendSQLite:
		c, err := twiglight.NewSQLiteCache(ctx, cfg.Render.CachePath)
		if err != nil {
			return nil, twigerrors.NewIOError(twigerrors.ErrCodeFileNotFound, "opening render cache", err).
				WithFile(cfg.Render.CachePath, 0)
		}
		p.cache, p.closer = c, c
	}
	return p, nil
}

func (p *pipeline) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// loadValues reads the value files in order, applies --set overrides and
// the configured sanitizing and normalisation.
func (p *pipeline) loadValues() (twiglight.Tree, error) {
	tree, err := values.LoadFiles(p.cfg.Values.Files)
	if err != nil {
		return nil, err
	}
	if err := values.ApplySets(tree, p.cfg.Values.Set); err != nil {
		return nil, err
	}
	tree = p.sanitizer.Apply(tree)
	if p.cfg.Values.Normalize == config.NormalizeNFC {
		tree = values.Normalize(tree)
	}
	return tree, nil
}

// readTemplate reads the template at path, or stdin when path is empty or
// "-".
func readTemplate(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", twigerrors.NewIOError(twigerrors.ErrCodeDecodeFailed, "reading template from stdin", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", twigerrors.ErrFileNotFound(path, err)
		}
		return "", twigerrors.NewIOError(twigerrors.ErrCodeFileNotFound, "reading template", err).WithFile(path, 0)
	}
	return string(data), nil
}

// renderer returns the Renderer for template, reusing the previous one
// while the template text is unchanged. Force-update is requested at most
// once per pipeline.
func (p *pipeline) renderer(template string) *twiglight.Renderer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.current.Template() == template {
		return p.current
	}

	opts := []twiglight.Option{
		twiglight.WithMaxDepth(p.cfg.Render.MaxDepth),
		twiglight.WithLogger(p.logger.Slog()),
	}
	if p.cache != nil {
		opts = append(opts,
			twiglight.WithCache(p.cache),
			twiglight.WithCacheTimeout(p.cfg.Render.CacheTimeout),
		)
		if p.cfg.Render.CacheKey != "" {
			opts = append(opts, twiglight.WithCacheKey(p.cfg.Render.CacheKey))
		}
		if p.cfg.Render.ForceCacheUpdate && !p.forced {
			opts = append(opts, twiglight.WithForceCacheUpdate())
			p.forced = true
		}
	}
	p.current = twiglight.New(template, opts...)
	return p.current
}

// render substitutes tree into template. In strict mode unresolved
// placeholders are an error.
func (p *pipeline) render(ctx context.Context, template string, tree twiglight.Tree) (string, error) {
	perf := p.logger.StartOperation("render")

	r := p.renderer(template)
	out, err := r.RenderContext(ctx, tree)
	if err != nil {
		perf.EndWithError(ctx, err)
		if errors.Is(err, twiglight.ErrDepthExceeded) {
			return "", twigerrors.NewRenderError(twigerrors.ErrCodeDepthExceeded, "rendering template", err)
		}
		return "", err
	}

	if p.cfg.Render.Strict {
		if missing, err := unresolved(r, tree); err != nil {
			perf.EndWithError(ctx, err)
			return "", err
		} else if len(missing) > 0 {
			err := twigerrors.ErrUnresolved(missing)
			perf.EndWithError(ctx, err)
			return "", err
		}
	}

	perf.End(ctx, "bytes", len(out))
	return out, nil
}

// renderFile loads values and the template at path and renders them.
func (p *pipeline) renderFile(ctx context.Context, path string, stdin io.Reader) (string, error) {
	template, err := readTemplate(path, stdin)
	if err != nil {
		return "", err
	}
	tree, err := p.loadValues()
	if err != nil {
		return "", err
	}
	return p.render(ctx, template, tree)
}

// unresolved lists the distinct placeholder paths of r that tree does not
// resolve, sorted.
func unresolved(r *twiglight.Renderer, tree twiglight.Tree) ([]string, error) {
	resolutions, err := r.Resolve(tree)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var missing []string
	for _, res := range resolutions {
		u, ok := res.(twiglight.Unresolved)
		if !ok {
			continue
		}
		if _, dup := seen[u.Path]; dup {
			continue
		}
		seen[u.Path] = struct{}{}
		missing = append(missing, u.Path)
	}
	sort.Strings(missing)
	return missing, nil
}

// watchedFiles returns the template and value files a re-render depends on.
func (p *pipeline) watchedFiles(template string) []string {
	files := make([]string, 0, len(p.cfg.Values.Files)+len(p.cfg.Watch.Paths)+1)
	if template != "" && template != "-" {
		files = append(files, template)
	}
	files = append(files, p.cfg.Values.Files...)
	files = append(files, p.cfg.Watch.Paths...)
	return files
}

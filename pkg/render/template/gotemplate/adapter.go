// Package gotemplate renders pongo2 templates from an fs.FS.
package gotemplate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

var ErrNoTemplates = errors.New("gotemplate: no template source configured")

type Option func(*config)

type config struct {
	files     fs.FS
	extension string
	globals   map[string]any
	filters   map[string]pongo2.FilterFunction
}

// WithFS reads templates from files.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.files = files
		}
	}
}

// WithDir reads templates from a directory on disk.
func WithDir(dir string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(dir) != "" {
			cfg.files = os.DirFS(dir)
		}
	}
}

// WithExtension is appended to template names passed without one.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.extension = ext
	}
}

// WithGlobals makes values visible to every template rendered by the
// engine. Per-render data shadows a global of the same name.
func WithGlobals(values map[string]any) Option {
	return func(cfg *config) {
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(values))
		}
		for key, value := range values {
			cfg.globals[key] = value
		}
	}
}

// WithFilter registers fn under name. pongo2 filters are process wide, so a
// name that is already registered keeps its first implementation.
func WithFilter(name string, fn pongo2.FilterFunction) Option {
	return func(cfg *config) {
		if name == "" || fn == nil {
			return
		}
		if cfg.filters == nil {
			cfg.filters = make(map[string]pongo2.FilterFunction)
		}
		cfg.filters[name] = fn
	}
}

// Engine renders named templates. It is safe for concurrent use.
type Engine struct {
	set       *pongo2.TemplateSet
	extension string

	mu    sync.RWMutex
	cache map[string]*pongo2.Template
}

func New(opts ...Option) (*Engine, error) {
	cfg := config{extension: ".tpl"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.files == nil {
		return nil, ErrNoTemplates
	}

	for name, fn := range cfg.filters {
		if pongo2.FilterExists(name) {
			continue
		}
		if err := pongo2.RegisterFilter(name, fn); err != nil {
			return nil, fmt.Errorf("gotemplate: register filter %q: %w", name, err)
		}
	}

	set := pongo2.NewSet("gfbridge", pongo2.NewFSLoader(cfg.files))
	if set.Globals == nil {
		set.Globals = make(pongo2.Context, len(cfg.globals))
	}
	for key, value := range cfg.globals {
		set.Globals[key] = value
	}

	return &Engine{
		set:       set,
		extension: cfg.extension,
		cache:     make(map[string]*pongo2.Template),
	}, nil
}

// RenderTemplate executes the named template with data layered over the
// engine globals.
func (e *Engine) RenderTemplate(name string, data map[string]any) (string, error) {
	tpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	ctx := pongo2.Context{}
	for key, value := range data {
		ctx[key] = value
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute %q: %w", name, err)
	}
	return out, nil
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("gotemplate: template name is empty")
	}
	if path.Ext(name) == "" {
		name += e.extension
	}

	e.mu.RLock()
	tpl, ok := e.cache[name]
	e.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	tpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %q: %w", name, err)
	}

	e.mu.Lock()
	e.cache[name] = tpl
	e.mu.Unlock()
	return tpl, nil
}

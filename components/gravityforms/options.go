package gravityforms

import (
	"log/slog"
	"net/http"

	"github.com/goliatone/go-gfbridge/pkg/forwarder"
	"github.com/goliatone/go-gfbridge/pkg/schemaproxy"
)

const (
	defaultSchemaPath = "/api/gravity-forms"
	defaultSubmitPath = "/api/gravity-submit"
	defaultFieldsPath = "/api/gravity-fields"
	defaultMaxBody    = 1 << 20
)

type GuardFunc func(r *http.Request) error

type Options struct {
	SchemaPath   string
	SubmitPath   string
	FieldsPath   string
	MaxBodyBytes int64
	Guard        GuardFunc

	Proxy     *schemaproxy.Proxy
	Forwarder *forwarder.Forwarder
	Metrics   *Metrics
	Logger    *slog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		SchemaPath:   defaultSchemaPath,
		SubmitPath:   defaultSubmitPath,
		FieldsPath:   defaultFieldsPath,
		MaxBodyBytes: defaultMaxBody,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.SchemaPath == "" {
		opts.SchemaPath = defaultSchemaPath
	}
	if opts.SubmitPath == "" {
		opts.SubmitPath = defaultSubmitPath
	}
	if opts.FieldsPath == "" {
		opts.FieldsPath = defaultFieldsPath
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBody
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Proxy == nil {
		opts.Proxy = schemaproxy.New(schemaproxy.WithLogger(opts.Logger))
	}
	if opts.Forwarder == nil {
		opts.Forwarder = forwarder.New(forwarder.WithLogger(opts.Logger))
	}
	return opts
}

func WithSchemaPath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SchemaPath = path
	}
}

func WithSubmitPath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SubmitPath = path
	}
}

func WithFieldsPath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.FieldsPath = path
	}
}

func WithMaxBodyBytes(limit int64) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxBodyBytes = limit
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithProxy(proxy *schemaproxy.Proxy) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Proxy = proxy
	}
}

func WithForwarder(fwd *forwarder.Forwarder) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Forwarder = fwd
	}
}

func WithMetrics(metrics *Metrics) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Metrics = metrics
	}
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

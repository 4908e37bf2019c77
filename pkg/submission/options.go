package submission

import (
	"log/slog"
	"net/http"
	"time"
)

// Options configures a Session.
type Options struct {
	SubmitEndpoint string
	SchemaEndpoint string
	HTTPClient     *http.Client
	Timeout        time.Duration
	InitialData    map[string]any
	ExtraValues    map[string]any
	Extractors     []Extractor
	OnSuccess      func(result map[string]any)
	OnError        func(message string, err error)
	Logger         *slog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		SubmitEndpoint: "/api/gravity-submit",
		SchemaEndpoint: "/api/gravity-forms",
		Timeout:        15 * time.Second,
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
	if opts.SubmitEndpoint == "" {
		opts.SubmitEndpoint = "/api/gravity-submit"
	}
	if opts.SchemaEndpoint == "" {
		opts.SchemaEndpoint = "/api/gravity-forms"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.Extractors) == 0 {
		opts.Extractors = DefaultExtractors()
	}
	opts.InitialData = cloneMap(opts.InitialData)
	opts.ExtraValues = cloneMap(opts.ExtraValues)
	return opts
}

// WithSubmitEndpoint sets the URL the payload is posted to.
func WithSubmitEndpoint(endpoint string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SubmitEndpoint = endpoint
	}
}

// WithSchemaEndpoint sets the URL the form schema is fetched from.
func WithSchemaEndpoint(endpoint string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SchemaEndpoint = endpoint
	}
}

func WithHTTPClient(client *http.Client) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.HTTPClient = client
	}
}

func WithTimeout(timeout time.Duration) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Timeout = timeout
	}
}

// WithInitialData seeds the session's form values.
func WithInitialData(values map[string]any) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.InitialData = values
	}
}

// WithExtraValues sets fixed values merged into every submission; they win
// over user-entered values.
func WithExtraValues(values map[string]any) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ExtraValues = values
	}
}

// WithExtractors replaces the error extractor chain.
func WithExtractors(extractors ...Extractor) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Extractors = append([]Extractor{}, extractors...)
	}
}

func WithOnSuccess(fn func(result map[string]any)) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.OnSuccess = fn
	}
}

func WithOnError(fn func(message string, err error)) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.OnError = fn
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

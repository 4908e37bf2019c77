package forwarder

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Settings are the remote API coordinates, resolved on every request.
type Settings struct {
	APIBase  string
	User     string
	Password string
}

// SettingsFunc resolves Settings lazily so a missing value fails the request
// that needs it, not process startup.
type SettingsFunc func() Settings

// EnvSettings reads GRAVITY_FORMS_API_URL, GF_CONSUMER_KEY and
// GF_CONSUMER_SECRET.
func EnvSettings() Settings {
	return Settings{
		APIBase:  os.Getenv("GRAVITY_FORMS_API_URL"),
		User:     os.Getenv("GF_CONSUMER_KEY"),
		Password: os.Getenv("GF_CONSUMER_SECRET"),
	}
}

type Options struct {
	Settings   SettingsFunc
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		Settings: EnvSettings,
		Timeout:  20 * time.Second,
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
	if opts.Settings == nil {
		opts.Settings = EnvSettings
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

func WithSettings(fn SettingsFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Settings = fn
	}
}

// WithStaticSettings pins the settings to fixed values.
func WithStaticSettings(settings Settings) OptionFn {
	return WithSettings(func() Settings { return settings })
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

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

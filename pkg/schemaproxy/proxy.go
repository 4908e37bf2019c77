// Package schemaproxy fetches Gravity Forms schemas through the WordPress
// OAuth proxy plugin so the browser never needs REST credentials.
package schemaproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-gfbridge/pkg/upstream"
)

// DefaultProxyURL is used when GRAVITY_FORMS_PROXY_URL is unset.
const DefaultProxyURL = "http://just.local/gf-oauth-proxy=1"

const (
	MessageMissingID     = "Missing id"
	MessageRequestFailed = "Request failed"
	MessageEmptyResponse = "Gravity Forms API returned empty response"
	MessageInvalidJSON   = "Invalid JSON from Gravity Forms"
)

const maxErrorText = 256

var idPattern = regexp.MustCompile(`^[1-9]\d*$`)

type Options struct {
	ProxyURL   func() string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger
}

type OptionFn func(*Options)

// EnvProxyURL reads GRAVITY_FORMS_PROXY_URL, falling back to DefaultProxyURL.
func EnvProxyURL() string {
	if value := strings.TrimSpace(os.Getenv("GRAVITY_FORMS_PROXY_URL")); value != "" {
		return value
	}
	return DefaultProxyURL
}

func DefaultOptions() Options {
	return Options{
		ProxyURL: EnvProxyURL,
		Timeout:  10 * time.Second,
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
	if opts.ProxyURL == nil {
		opts.ProxyURL = EnvProxyURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// WithProxyURL pins the proxy URL.
func WithProxyURL(raw string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.ProxyURL = func() string { return raw }
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

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

type Proxy struct {
	opts Options
}

func New(fns ...OptionFn) *Proxy {
	return &Proxy{opts: NewOptions(fns...)}
}

// TargetURL builds the proxy URL asking for /wp-json/gf/v2/forms/<id>.
func (p *Proxy) TargetURL(id string) (string, error) {
	base := strings.TrimSpace(p.opts.ProxyURL())
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", upstream.Misconfigured(fmt.Sprintf("Invalid GRAVITY_FORMS_PROXY_URL %q", base))
	}
	query := parsed.Query()
	query.Set("id", "/wp-json/gf/v2/forms/"+id)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// Fetch returns the raw form schema JSON. Every failure is an *upstream.Error.
func (p *Proxy) Fetch(ctx context.Context, id string) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, upstream.BadRequest(MessageMissingID)
	}
	if !idPattern.MatchString(id) {
		return nil, upstream.BadRequest("Invalid id")
	}

	target, err := p.TargetURL(id)
	if err != nil {
		p.opts.Logger.Error("schema proxy misconfigured", "error", err.Error())
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, upstream.Misconfigured(fmt.Sprintf("schemaproxy: build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.opts.HTTPClient.Do(req)
	if err != nil {
		p.opts.Logger.Error("schema fetch failed", "form_id", id, "error", err)
		return nil, &upstream.Error{Kind: upstream.KindTransport, Code: http.StatusBadGateway, Message: MessageRequestFailed, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := upstream.ReadBody(resp)
	if err != nil {
		if upErr, ok := upstream.As(err); ok {
			return nil, upErr
		}
		return nil, &upstream.Error{Kind: upstream.KindTransport, Code: http.StatusBadGateway, Message: MessageRequestFailed, Err: err}
	}

	if !upstream.IsSuccess(resp.StatusCode) {
		p.opts.Logger.Error("schema proxy non-OK response",
			slog.String("form_id", id),
			slog.Int("status", resp.StatusCode),
			slog.String("body", upstream.Snippet(data, 300)),
		)
		message := strings.TrimSpace(string(data))
		if message == "" || len(message) > maxErrorText {
			message = MessageRequestFailed
		}
		return nil, &upstream.Error{Kind: upstream.KindUpstreamRejected, Code: resp.StatusCode, Message: message}
	}

	schema, err := upstream.DecodeSuccess(data, MessageEmptyResponse, MessageInvalidJSON)
	if err != nil {
		p.opts.Logger.Error("schema proxy response unusable", "form_id", id, "error", err)
		return nil, err
	}
	return schema, nil
}

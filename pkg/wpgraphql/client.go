// Package wpgraphql is a small client for the WPGraphQL endpoint of the
// WordPress site: form field schemas and post listings.
package wpgraphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-gfbridge/pkg/upstream"
)

// DefaultURL is used when WORDPRESS_URL is unset.
const DefaultURL = "http://just.local/graphql"

var ErrEmptyData = errors.New("wpgraphql: response carried no data")

// GraphQLError is one entry of a response "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// ResponseError collects the errors a GraphQL response reported.
type ResponseError struct {
	Operation string
	Errors    []GraphQLError
}

func (e *ResponseError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return "wpgraphql: query failed"
	}
	messages := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		messages = append(messages, entry.Message)
	}
	if e.Operation != "" {
		return fmt.Sprintf("wpgraphql: %s: %s", e.Operation, strings.Join(messages, "; "))
	}
	return "wpgraphql: " + strings.Join(messages, "; ")
}

type Options struct {
	URL        string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	url := strings.TrimSpace(os.Getenv("WORDPRESS_URL"))
	if url == "" {
		url = DefaultURL
	}
	return Options{
		URL:     url,
		Timeout: 10 * time.Second,
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
	if strings.TrimSpace(opts.URL) == "" {
		opts.URL = DefaultURL
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

func WithURL(url string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.URL = url
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

type Client struct {
	opts Options
}

func New(fns ...OptionFn) *Client {
	return &Client{opts: NewOptions(fns...)}
}

// URL reports the GraphQL endpoint in use.
func (c *Client) URL() string {
	return c.opts.URL
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Query posts doc with variables and decodes the "data" member into out.
// A non-empty "errors" array is returned as *ResponseError.
func (c *Client) Query(ctx context.Context, doc Document, variables map[string]any, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(request{Query: doc.Text, OperationName: doc.Operation, Variables: variables})
	if err != nil {
		return fmt.Errorf("wpgraphql: encode request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.opts.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("wpgraphql: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("wpgraphql: %s: %w", doc.Operation, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := upstream.ReadBody(resp)
	if err != nil {
		return err
	}

	var decoded response
	if err := json.Unmarshal(data, &decoded); err != nil {
		if !upstream.IsSuccess(resp.StatusCode) {
			return fmt.Errorf("wpgraphql: %s: unexpected status %s", doc.Operation, resp.Status)
		}
		return fmt.Errorf("wpgraphql: %s: decode response: %w", doc.Operation, err)
	}
	if len(decoded.Errors) > 0 {
		c.opts.Logger.Warn("wpgraphql query returned errors",
			slog.String("operation", doc.Operation),
			slog.Int("errors", len(decoded.Errors)),
		)
		return &ResponseError{Operation: doc.Operation, Errors: decoded.Errors}
	}
	if !upstream.IsSuccess(resp.StatusCode) {
		return fmt.Errorf("wpgraphql: %s: unexpected status %s", doc.Operation, resp.Status)
	}
	if len(decoded.Data) == 0 || string(decoded.Data) == "null" {
		return ErrEmptyData
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(decoded.Data, out); err != nil {
		return fmt.Errorf("wpgraphql: %s: decode data: %w", doc.Operation, err)
	}
	return nil
}

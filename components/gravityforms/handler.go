package gravityforms

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-gfbridge/pkg/fields"
	"github.com/goliatone/go-gfbridge/pkg/forwarder"
	"github.com/goliatone/go-gfbridge/pkg/model"
	"github.com/goliatone/go-gfbridge/pkg/upstream"
)

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// ErrorResponse is the JSON body written for every failure.
type ErrorResponse struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Messages   map[string]string `json:"messages,omitempty"`
}

// FieldsResponse is the body of the fields endpoint.
type FieldsResponse struct {
	Data FormFields `json:"data"`
}

type FormFields struct {
	FormID       string               `json:"formId"`
	Title        string               `json:"title,omitempty"`
	Fields       []model.ContactField `json:"fields"`
	Confirmation *model.Confirmation  `json:"confirmation,omitempty"`
}

// SchemaHandler serves GET ?id=<formId> with the raw Gravity Forms schema.
func SchemaHandler(fns ...OptionFn) http.Handler {
	return SchemaHandlerWithOptions(NewOptions(fns...))
}

func SchemaHandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet, http.MethodHead) || !guard(w, r, opts) {
			return
		}

		schema, err := opts.Proxy.Fetch(r.Context(), r.URL.Query().Get("id"))
		if err != nil {
			opts.Metrics.schema(resultLabel(err))
			writeError(w, err)
			return
		}
		opts.Metrics.schema("ok")
		writeJSON(w, r, http.StatusOK, schema)
	})
}

// FieldsHandler serves GET ?id=<formId> with the mapped contact fields and the
// default confirmation of the form.
func FieldsHandler(fns ...OptionFn) http.Handler {
	return FieldsHandlerWithOptions(NewOptions(fns...))
}

func FieldsHandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet, http.MethodHead) || !guard(w, r, opts) {
			return
		}

		id := strings.TrimSpace(r.URL.Query().Get("id"))
		schema, err := opts.Proxy.Fetch(r.Context(), id)
		if err != nil {
			opts.Metrics.fields(resultLabel(err))
			writeError(w, err)
			return
		}

		var form model.Form
		if err := json.Unmarshal(schema, &form); err != nil {
			opts.Logger.Error("form schema does not match the expected shape", "form_id", id, "error", err)
			opts.Metrics.fields(string(upstream.KindUpstreamMalformed))
			writeError(w, &upstream.Error{Kind: upstream.KindUpstreamMalformed, Code: http.StatusInternalServerError, Message: "Invalid JSON from Gravity Forms", Err: err})
			return
		}

		out := FormFields{
			FormID: id,
			Title:  form.Title,
			Fields: fields.MapFields(form.Fields),
		}
		if confirmation, ok := form.DefaultConfirmation(); ok {
			out.Confirmation = &confirmation
		}
		opts.Metrics.fields("ok")
		writeJSON(w, r, http.StatusOK, FieldsResponse{Data: out})
	})
}

// SubmitHandler serves POST submissions and relays them upstream.
func SubmitHandler(fns ...OptionFn) http.Handler {
	return SubmitHandlerWithOptions(NewOptions(fns...))
}

func SubmitHandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) || !guard(w, r, opts) {
			return
		}

		body, err := readBody(w, r, opts.MaxBodyBytes)
		if err != nil {
			opts.Metrics.submission(resultLabel(err))
			writeError(w, err)
			return
		}

		result, err := opts.Forwarder.Forward(r.Context(), forwarder.Request{Body: body, Query: r.URL.Query()})
		if err != nil {
			opts.Metrics.submission(resultLabel(err))
			writeError(w, err)
			return
		}
		opts.Metrics.submission("ok")
		writeJSON(w, r, http.StatusOK, result)
	})
}

// readBody decodes the JSON object body. An empty or unparsable body is
// treated as {} so the form id can still come from the query string.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) (map[string]any, error) {
	body := map[string]any{}
	if r.Body == nil {
		return body, nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, StatusError{Code: http.StatusRequestEntityTooLarge, Err: err}
		}
		return nil, StatusError{Code: http.StatusBadRequest, Err: err}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(data, &body); err != nil || body == nil {
		return map[string]any{}, nil
	}
	return body, nil
}

func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	if r == nil {
		writeError(w, StatusError{Code: http.StatusBadRequest})
		return false
	}
	for _, method := range methods {
		if r.Method == method {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, StatusError{Code: http.StatusMethodNotAllowed})
	return false
}

func guard(w http.ResponseWriter, r *http.Request, opts Options) bool {
	if opts.Guard == nil {
		return true
	}
	err := opts.Guard(r)
	if err == nil {
		return true
	}
	code := http.StatusForbidden
	var httpErr upstream.HTTPError
	if errors.As(err, &httpErr) && httpErr != nil && httpErr.StatusCode() > 0 {
		code = httpErr.StatusCode()
	}
	writeError(w, StatusError{Code: code})
	return false
}

func writeError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	resp := ErrorResponse{StatusCode: http.StatusInternalServerError}
	if upErr, ok := upstream.As(err); ok {
		resp.StatusCode = upErr.StatusCode()
		resp.Message = upErr.PublicMessage()
		resp.Messages = upErr.Messages
	} else {
		var httpErr upstream.HTTPError
		if errors.As(err, &httpErr) && httpErr != nil {
			resp.StatusCode = httpErr.StatusCode()
		}
		resp.Message = http.StatusText(resp.StatusCode)
	}
	if resp.Message == "" {
		resp.Message = http.StatusText(resp.StatusCode)
	}
	writeJSON(w, nil, resp.StatusCode, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if r != nil && r.Method == http.MethodHead {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func resultLabel(err error) string {
	if upErr, ok := upstream.As(err); ok {
		return string(upErr.Kind)
	}
	var status StatusError
	if errors.As(err, &status) {
		return string(upstream.KindBadRequest)
	}
	return "error"
}

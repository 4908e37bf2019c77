// Package forwarder relays browser submissions to the Gravity Forms REST API
// using server-held credentials.
package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-gfbridge/pkg/model"
	"github.com/goliatone/go-gfbridge/pkg/upstream"
)

const (
	MessageSubmissionFailed = "Submission Failed"
	MessageEmptyResponse    = "Gravity Forms API returned empty response"
	MessageInvalidJSON      = "Invalid JSON from Gravity Forms"
	MessageUnreachable      = "Gravity Forms API unreachable"
)

// Request is an inbound submission: the decoded JSON body and the query
// string of the request that carried it.
type Request struct {
	Body  map[string]any
	Query url.Values
}

// Forwarder posts flattened submissions upstream.
type Forwarder struct {
	opts Options
}

func New(fns ...OptionFn) *Forwarder {
	return &Forwarder{opts: NewOptions(fns...)}
}

// Forward resolves the form id, flattens the body and submits it. On success
// the upstream JSON is returned verbatim. Every failure is an *upstream.Error.
func (f *Forwarder) Forward(ctx context.Context, req Request) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	body := req.Body
	if body == nil {
		body = map[string]any{}
	}

	formID, err := ResolveFormID(body, req.Query)
	if err != nil {
		return nil, err
	}

	flat := Flatten(body)
	FixCompositeName(flat)

	settings, err := f.settings()
	if err != nil {
		f.opts.Logger.Error("forwarder misconfigured", "form_id", formID, "error", err.Error())
		return nil, err
	}

	payload := make(map[string]any, len(flat)+2)
	for key, value := range flat {
		payload[key] = value
	}
	payload["source_page"] = 1
	payload["target_page"] = 1

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, &upstream.Error{Kind: upstream.KindBadRequest, Code: http.StatusBadRequest, Message: "Invalid submission body", Err: err}
	}

	endpoint := fmt.Sprintf("%s/forms/%s/submissions", settings.APIBase, formID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, upstream.Misconfigured(fmt.Sprintf("forwarder: build request: %v", err))
	}
	httpReq.SetBasicAuth(settings.User, settings.Password)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := f.opts.HTTPClient.Do(httpReq)
	if err != nil {
		f.opts.Logger.Error("forwarder request failed", "form_id", formID, "error", err)
		return nil, &upstream.Error{Kind: upstream.KindTransport, Code: http.StatusBadGateway, Message: MessageUnreachable, Err: err}
	}
	defer resp.Body.Close()

	data, err := upstream.ReadBody(resp)
	if err != nil {
		if upErr, ok := upstream.As(err); ok {
			return nil, upErr
		}
		return nil, &upstream.Error{Kind: upstream.KindTransport, Code: http.StatusBadGateway, Message: MessageUnreachable, Err: err}
	}

	if !upstream.IsSuccess(resp.StatusCode) {
		f.opts.Logger.Warn("gravity forms rejected submission",
			slog.String("form_id", formID),
			slog.Int("status", resp.StatusCode),
			slog.String("body", upstream.Snippet(data, 512)),
		)
		return nil, rejection(resp.StatusCode, data)
	}

	result, err := upstream.DecodeSuccess(data, MessageEmptyResponse, MessageInvalidJSON)
	if err != nil {
		f.opts.Logger.Error("gravity forms response unusable", "form_id", formID, "status", resp.StatusCode, "error", err)
		return nil, err
	}
	f.opts.Logger.Debug("submission forwarded", "form_id", formID, "fields", len(flat))
	return result, nil
}

func (f *Forwarder) settings() (Settings, error) {
	settings := f.opts.Settings()
	settings.APIBase = strings.TrimRight(strings.TrimSpace(settings.APIBase), "/")
	if settings.APIBase == "" {
		return Settings{}, upstream.Misconfigured("Missing GRAVITY_FORMS_API_URL")
	}
	if settings.User == "" || settings.Password == "" {
		return Settings{}, upstream.Misconfigured("Missing GF_CONSUMER_KEY or GF_CONSUMER_SECRET")
	}
	return settings, nil
}

// rejection classifies a non-2xx upstream reply. Bodies carrying
// validation_messages become a 422; anything else keeps the upstream status.
func rejection(status int, data []byte) *upstream.Error {
	var details map[string]any
	if err := json.Unmarshal(data, &details); err != nil {
		details = nil
	}

	if raw, ok := details["validation_messages"]; ok && raw != nil {
		if messages, ok := model.ValidationMessages(raw); ok {
			return upstream.Validation(messages)
		}
	}

	message := MessageSubmissionFailed
	if text, ok := details["message"].(string); ok && strings.TrimSpace(text) != "" {
		message = strings.TrimSpace(text)
	}
	return &upstream.Error{Kind: upstream.KindUpstreamRejected, Code: status, Message: message}
}

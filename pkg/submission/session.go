package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-gfbridge/pkg/model"
)

// State is the per-attempt view a UI binds to. It is never persisted.
type State struct {
	Submitting          bool              `json:"submitting"`
	Success             bool              `json:"success"`
	ErrorMsg            string            `json:"errorMsg"`
	FieldErrors         map[string]string `json:"fieldErrors"`
	ConfirmationType    string            `json:"confirmationType,omitempty"`
	ConfirmationMessage string            `json:"confirmationMessage,omitempty"`
}

// Session holds the values and submission state of one form instance. A
// session allows a single submission in flight at a time.
type Session struct {
	formID int
	opts   Options

	mu     sync.Mutex
	values map[string]any
	state  State
}

// NewSession constructs a Session for formID.
func NewSession(formID int, fns ...OptionFn) *Session {
	opts := NewOptions(fns...)
	return &Session{
		formID: formID,
		opts:   opts,
		values: cloneMap(opts.InitialData),
		state:  State{FieldErrors: map[string]string{}},
	}
}

// FormID reports the form the session submits to.
func (s *Session) FormID() int {
	return s.formID
}

// Set stores a form value. When the value changes, the field error of its
// parent remote id is cleared; other field errors are left alone.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.values[key]
	s.values[key] = value
	if existed && reflect.DeepEqual(prev, value) {
		return
	}
	if parent := errorKeyFor(key); parent != "" {
		delete(s.state.FieldErrors, parent)
	}
}

// Values returns a copy of the current form values.
func (s *Session) Values() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMap(s.values)
}

// State returns a copy of the current submission state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Fields returns the normalised remote-keyed fields for the current values.
func (s *Session) Fields() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildFields(s.values, s.opts.ExtraValues)
}

// SeedConfirmation applies the schema's default confirmation to the state.
func (s *Session) SeedConfirmation(form model.Form) {
	active, ok := form.DefaultConfirmation()
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ConfirmationType = active.Type
	s.state.ConfirmationMessage = active.Message
}

// LoadForm fetches the form schema from the schema endpoint and seeds the
// default confirmation.
func (s *Session) LoadForm(ctx context.Context) (model.Form, error) {
	endpoint, err := url.Parse(s.opts.SchemaEndpoint)
	if err != nil {
		return model.Form{}, fmt.Errorf("submission: parse schema endpoint: %w", err)
	}
	query := endpoint.Query()
	query.Set("id", strconv.Itoa(s.formID))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return model.Form{}, fmt.Errorf("submission: build schema request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	data, err := s.do(req)
	if err != nil {
		return model.Form{}, err
	}

	var form model.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return model.Form{}, fmt.Errorf("submission: decode form schema: %w", err)
	}
	s.SeedConfirmation(form)
	return form, nil
}

// Submit posts the current values to the submit endpoint and folds the
// response into the session state. The returned Outcome describes the
// result; the error is non-nil only when the attempt could not start.
func (s *Session) Submit(ctx context.Context) (model.Outcome, error) {
	s.mu.Lock()
	if s.state.Submitting {
		s.mu.Unlock()
		return model.Outcome{}, ErrSubmitInFlight
	}
	s.state.Submitting = true
	s.state.Success = false
	s.state.ErrorMsg = ""
	s.state.FieldErrors = map[string]string{}
	payload := BuildPayload(s.formID, s.values, s.opts.ExtraValues)
	s.mu.Unlock()

	outcome := s.send(ctx, payload)

	s.mu.Lock()
	s.state.Submitting = false
	s.mu.Unlock()

	return outcome, nil
}

func (s *Session) send(ctx context.Context, payload Payload) model.Outcome {
	body, err := json.Marshal(payload)
	if err != nil {
		return s.fail(&TransportError{Err: fmt.Errorf("encode payload: %w", err)})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.SubmitEndpoint, bytes.NewReader(body))
	if err != nil {
		return s.fail(&TransportError{Err: fmt.Errorf("build request: %w", err)})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	data, err := s.do(req)
	if err != nil {
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			transportErr = &TransportError{Err: err}
		}
		return s.fail(transportErr)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return s.fail(&TransportError{
			Status:  http.StatusBadGateway,
			Message: "Invalid response from the submission endpoint",
			Data:    string(data),
			Err:     err,
		})
	}

	if valid, ok := result["is_valid"].(bool); ok && !valid {
		messages, _ := model.ValidationMessages(result["validation_messages"])
		return s.invalid(messages)
	}

	return s.succeed(result)
}

func (s *Session) succeed(result map[string]any) model.Outcome {
	s.mu.Lock()
	if text, ok := result["confirmation_type"].(string); ok && text != "" {
		s.state.ConfirmationType = text
	}
	if text, ok := result["confirmation_message"].(string); ok && text != "" {
		s.state.ConfirmationMessage = text
	}
	s.state.Success = true
	s.values = map[string]any{}
	confirmation := s.confirmation()
	s.mu.Unlock()

	s.opts.Logger.Debug("gravity form submitted", "form_id", s.formID)
	if s.opts.OnSuccess != nil {
		s.opts.OnSuccess(result)
	}
	return model.Succeeded(result, confirmation)
}

func (s *Session) invalid(messages map[string]string) model.Outcome {
	if messages == nil {
		messages = map[string]string{}
	}
	s.mu.Lock()
	s.state.FieldErrors = cloneMessages(messages)
	s.state.ErrorMsg = ""
	s.mu.Unlock()

	s.opts.Logger.Debug("gravity form rejected", "form_id", s.formID, "fields", len(messages))
	return model.Invalid(messages)
}

func (s *Session) fail(err *TransportError) model.Outcome {
	parsed := ParseServerError(err.View(), s.opts.Extractors...)
	if parsed.Messages != nil {
		return s.invalid(parsed.Messages)
	}

	message := strings.TrimSpace(parsed.Message)
	if message == "" {
		message = DefaultErrorMessage
	}

	s.mu.Lock()
	s.state.ErrorMsg = message
	s.mu.Unlock()

	s.opts.Logger.Warn("gravity form submission failed", "form_id", s.formID, "status", err.StatusCode(), "error", err)
	if s.opts.OnError != nil {
		s.opts.OnError(message, err)
	}
	return model.Failed(err.StatusCode(), message)
}

// do executes req and returns the body of a 2xx response. Other responses
// become a *TransportError carrying the decoded body.
func (s *Session) do(req *http.Request) ([]byte, error) {
	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		transportErr := &TransportError{Status: resp.StatusCode}
		var decoded any
		if len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, &decoded); err == nil {
				transportErr.Data = decoded
				if obj, ok := decoded.(map[string]any); ok {
					if msg, ok := obj["message"].(string); ok {
						transportErr.Message = msg
					}
				}
			} else {
				transportErr.Data = string(data)
			}
		}
		return nil, transportErr
	}
	return data, nil
}

func (s *Session) snapshot() State {
	out := s.state
	out.FieldErrors = cloneMessages(s.state.FieldErrors)
	return out
}

func (s *Session) confirmation() *model.Confirmation {
	if s.state.ConfirmationType == "" && s.state.ConfirmationMessage == "" {
		return nil
	}
	return &model.Confirmation{
		Type:    s.state.ConfirmationType,
		Message: s.state.ConfirmationMessage,
	}
}

// errorKeyFor returns the field error key a value key addresses: the parent
// id of remote keys ("input_1.3" -> "1") and bare ids ("1.3" -> "1").
func errorKeyFor(key string) string {
	bare := model.BareKey(key)
	if !model.IsNumericKey(bare) {
		return ""
	}
	return model.ParentID(bare)
}

func cloneMessages(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

package submission_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-gfbridge/pkg/model"
	"github.com/goliatone/go-gfbridge/pkg/submission"
)

func newSubmitServer(t *testing.T, status int, body string, capture *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSession_SubmitSuccess(t *testing.T) {
	var sent map[string]any
	srv := newSubmitServer(t, http.StatusOK, `{"is_valid": true, "confirmation_type": "message", "confirmation_message": "Thanks!"}`, &sent)

	var gotResult map[string]any
	session := submission.NewSession(2,
		submission.WithSubmitEndpoint(srv.URL),
		submission.WithExtraValues(map[string]any{"9": "homepage"}),
		submission.WithOnSuccess(func(result map[string]any) { gotResult = result }),
	)
	session.Set("input_1.3", "Jane")
	session.Set("3", "jane@example.com")

	outcome, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Kind != model.OutcomeSuccess {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if outcome.Confirmation == nil || outcome.Confirmation.Message != "Thanks!" {
		t.Fatalf("expected confirmation from response, got %+v", outcome.Confirmation)
	}
	if gotResult == nil {
		t.Fatalf("expected OnSuccess callback")
	}

	if sent["input_1.3"] != "Jane" || sent["input_3"] != "jane@example.com" || sent["input_9"] != "homepage" {
		t.Fatalf("unexpected top-level fields: %v", sent)
	}
	if sent["target_page"] != float64(0) || sent["source_page"] != float64(1) {
		t.Fatalf("unexpected pagination markers: %v", sent)
	}

	state := session.State()
	if !state.Success || state.Submitting || state.ErrorMsg != "" {
		t.Fatalf("unexpected state: %+v", state)
	}
	if len(session.Values()) != 0 {
		t.Fatalf("expected values cleared after success, got %v", session.Values())
	}
}

func TestSession_IsValidFalseSurfacesFieldErrors(t *testing.T) {
	srv := newSubmitServer(t, http.StatusOK, `{"is_valid": false, "validation_messages": {"1": "Name is required"}}`, nil)

	var onErrorCalled bool
	session := submission.NewSession(2,
		submission.WithSubmitEndpoint(srv.URL),
		submission.WithOnError(func(string, error) { onErrorCalled = true }),
	)
	session.Set("input_3", "jane@example.com")

	outcome, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Kind != model.OutcomeValidationFailure {
		t.Fatalf("expected validation failure, got %+v", outcome)
	}

	state := session.State()
	if diff := cmp.Diff(map[string]string{"1": "Name is required"}, state.FieldErrors); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if state.ErrorMsg != "" {
		t.Fatalf("expected empty generic error, got %q", state.ErrorMsg)
	}
	if state.Success {
		t.Fatalf("expected success=false")
	}
	if onErrorCalled {
		t.Fatalf("validation failures should not trigger OnError")
	}
	if got := session.Values()["input_3"]; got != "jane@example.com" {
		t.Fatalf("values should survive a failed submission, got %v", got)
	}
}

func TestSession_ProxyValidationErrorEnvelope(t *testing.T) {
	srv := newSubmitServer(t, http.StatusUnprocessableEntity, `{"statusCode": 422, "message": "Validation failed", "messages": {"1": "Name is required", "3": "Email invalid"}}`, nil)

	session := submission.NewSession(2, submission.WithSubmitEndpoint(srv.URL))
	outcome, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Kind != model.OutcomeValidationFailure {
		t.Fatalf("expected validation failure, got %+v", outcome)
	}
	want := map[string]string{"1": "Name is required", "3": "Email invalid"}
	if diff := cmp.Diff(want, session.State().FieldErrors); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_StringEncodedErrorBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		kind     model.OutcomeKind
		messages map[string]string
		message  string
	}{
		{
			name:     "validation messages",
			body:     `"{\"validation_messages\":{\"1\":\"Name is required\"}}"`,
			kind:     model.OutcomeValidationFailure,
			messages: map[string]string{"1": "Name is required"},
		},
		{
			name:    "plain message",
			body:    `"{\"message\":\"Form is closed\"}"`,
			kind:    model.OutcomeTransportFailure,
			message: "Form is closed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSubmitServer(t, http.StatusUnprocessableEntity, tt.body, nil)

			session := submission.NewSession(2, submission.WithSubmitEndpoint(srv.URL))
			outcome, err := session.Submit(context.Background())
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if outcome.Kind != tt.kind {
				t.Fatalf("expected %s, got %+v", tt.kind, outcome)
			}
			if tt.messages != nil {
				if diff := cmp.Diff(tt.messages, session.State().FieldErrors); diff != "" {
					t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
				}
			}
			if outcome.Message != tt.message {
				t.Fatalf("message mismatch: %q", outcome.Message)
			}
		})
	}
}

func TestSession_TransportFailureUsesUpstreamMessage(t *testing.T) {
	srv := newSubmitServer(t, http.StatusBadGateway, `{"statusCode": 502, "message": "Upstream unavailable"}`, nil)

	var gotMessage string
	session := submission.NewSession(2,
		submission.WithSubmitEndpoint(srv.URL),
		submission.WithOnError(func(message string, _ error) { gotMessage = message }),
	)
	outcome, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := model.Failed(http.StatusBadGateway, "Upstream unavailable")
	if diff := cmp.Diff(want, outcome); diff != "" {
		t.Fatalf("outcome mismatch (-want +got):\n%s", diff)
	}
	if gotMessage != "Upstream unavailable" {
		t.Fatalf("OnError message mismatch: %q", gotMessage)
	}
	if session.State().ErrorMsg != "Upstream unavailable" {
		t.Fatalf("state error mismatch: %+v", session.State())
	}
}

func TestSession_TransportFailureDefaultsMessage(t *testing.T) {
	srv := newSubmitServer(t, http.StatusInternalServerError, `<html>oops</html>`, nil)

	session := submission.NewSession(2, submission.WithSubmitEndpoint(srv.URL))
	outcome, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Kind != model.OutcomeTransportFailure || outcome.Message != submission.DefaultErrorMessage {
		t.Fatalf("expected default transport failure, got %+v", outcome)
	}
	if outcome.Status != http.StatusInternalServerError {
		t.Fatalf("status mismatch: %d", outcome.Status)
	}
}

func TestSession_EditingClearsOnlyParentFieldError(t *testing.T) {
	srv := newSubmitServer(t, http.StatusOK, `{"is_valid": false, "validation_messages": {"1": "Name is required", "3": "Email invalid"}}`, nil)

	session := submission.NewSession(2, submission.WithSubmitEndpoint(srv.URL))
	session.Set("input_1.3", "")
	if _, err := session.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	session.Set("input_1.3", "")
	if len(session.State().FieldErrors) != 2 {
		t.Fatalf("unchanged value must not clear errors: %+v", session.State().FieldErrors)
	}

	session.Set("input_1.3", "Jane")
	want := map[string]string{"3": "Email invalid"}
	if diff := cmp.Diff(want, session.State().FieldErrors); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	session.Set("firstName", "ignored")
	if diff := cmp.Diff(want, session.State().FieldErrors); diff != "" {
		t.Fatalf("non-remote keys must not clear errors (-want +got):\n%s", diff)
	}
}

func TestSession_RejectsOverlappingSubmit(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		_, _ = w.Write([]byte(`{"is_valid": true}`))
	}))
	t.Cleanup(srv.Close)

	session := submission.NewSession(2, submission.WithSubmitEndpoint(srv.URL))

	done := make(chan error, 1)
	go func() {
		_, err := session.Submit(context.Background())
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("first submission never reached the server")
	}

	if !session.State().Submitting {
		t.Fatalf("expected submitting=true while in flight")
	}
	if _, err := session.Submit(context.Background()); !errors.Is(err, submission.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if session.State().Submitting {
		t.Fatalf("expected submitting=false after completion")
	}
}

func TestSession_LoadFormSeedsDefaultConfirmation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "2" {
			t.Errorf("expected id=2, got %q", got)
		}
		_, _ = w.Write([]byte(`{"id": "2", "confirmations": {"a": {"type": "message", "message": "First"}, "b": {"isDefault": true, "type": "redirect", "message": "Default"}}}`))
	}))
	t.Cleanup(srv.Close)

	session := submission.NewSession(2, submission.WithSchemaEndpoint(srv.URL+"/api/gravity-forms"))
	if _, err := session.LoadForm(context.Background()); err != nil {
		t.Fatalf("load form: %v", err)
	}
	state := session.State()
	if state.ConfirmationType != "redirect" || state.ConfirmationMessage != "Default" {
		t.Fatalf("confirmation not seeded: %+v", state)
	}
}

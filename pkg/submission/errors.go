package submission

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSubmitInFlight is returned when Submit is called while a previous
// submission on the same session has not completed.
var ErrSubmitInFlight = errors.New("submission: a submission is already in flight")

// TransportError describes a failed round trip to the submit endpoint:
// non-2xx responses, unreadable bodies and network failures.
type TransportError struct {
	Status  int
	Message string
	// Data holds the decoded response body, or the raw text when it was not
	// JSON.
	Data any
	Err  error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("submission: %d %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return "submission: " + e.Err.Error()
	}
	return fmt.Sprintf("submission: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StatusCode reports the HTTP status, defaulting to 500.
func (e *TransportError) StatusCode() int {
	if e == nil || e.Status <= 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// View exposes the error as nested objects so extractors can address it the
// same way for every transport: data and response._data carry the body,
// message the upstream summary text. Network failures carry no message so the
// caller falls back to its default text.
func (e *TransportError) View() map[string]any {
	if e == nil {
		return nil
	}
	view := map[string]any{
		"statusCode": e.StatusCode(),
		"response": map[string]any{
			"status": e.StatusCode(),
		},
	}
	if e.Data != nil {
		view["data"] = e.Data
		view["response"].(map[string]any)["_data"] = e.Data
	}
	if e.Message != "" {
		view["message"] = e.Message
	}
	return view
}

package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// OutcomeKind names the three possible results of a submission attempt.
type OutcomeKind string

const (
	OutcomeSuccess           OutcomeKind = "success"
	OutcomeValidationFailure OutcomeKind = "validation_failure"
	OutcomeTransportFailure  OutcomeKind = "transport_failure"
)

// Outcome carries exactly one submission result. Only the fields belonging to
// Kind are populated.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	// success
	Result       map[string]any `json:"result,omitempty"`
	Confirmation *Confirmation  `json:"confirmation,omitempty"`

	// validation failure
	Messages map[string]string `json:"messages,omitempty"`

	// transport failure
	Status  int    `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// Succeeded builds a success outcome.
func Succeeded(result map[string]any, confirmation *Confirmation) Outcome {
	return Outcome{Kind: OutcomeSuccess, Result: result, Confirmation: confirmation}
}

// Invalid builds a validation failure outcome.
func Invalid(messages map[string]string) Outcome {
	if messages == nil {
		messages = map[string]string{}
	}
	return Outcome{Kind: OutcomeValidationFailure, Messages: messages}
}

// Failed builds a transport failure outcome.
func Failed(status int, message string) Outcome {
	return Outcome{Kind: OutcomeTransportFailure, Status: status, Message: message}
}

// ValidationMessages coerces a decoded validation_messages value into a
// field id -> message map. Gravity Forms sends an object keyed by field id,
// an empty array when there is nothing to report, and occasionally a list of
// messages per field. ok is false when raw has no usable shape.
func ValidationMessages(raw any) (map[string]string, bool) {
	switch value := raw.(type) {
	case map[string]string:
		return cloneMessages(value), true
	case map[string]any:
		out := make(map[string]string, len(value))
		for key, entry := range value {
			if text := messageText(entry); text != "" {
				out[key] = text
			}
		}
		return out, true
	case []any:
		out := make(map[string]string, len(value))
		for idx, entry := range value {
			if text := messageText(entry); text != "" {
				out[fmt.Sprint(idx)] = text
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func messageText(entry any) string {
	switch value := entry.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			if text := messageText(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		if msg, ok := value["message"]; ok {
			return messageText(msg)
		}
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			if text := messageText(value[key]); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, " ")
	case json.Number:
		return value.String()
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func cloneMessages(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

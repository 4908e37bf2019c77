package submission

import (
	"encoding/json"
	"strings"

	"github.com/goliatone/go-gfbridge/pkg/model"
)

// DefaultErrorMessage is shown when a failure carries no usable detail.
const DefaultErrorMessage = "There was an error submitting the form."

// ServerError is the detail recovered from a failed submission: either
// field-level messages or a single message.
type ServerError struct {
	Messages map[string]string
	Message  string
}

// Extractor inspects a raw error value and reports whether it recognised a
// shape.
type Extractor func(raw any) (ServerError, bool)

// MessagesAt returns an extractor that reads validation messages at the given
// path of nested objects.
func MessagesAt(path ...string) Extractor {
	return func(raw any) (ServerError, bool) {
		value, ok := lookup(raw, path...)
		if !ok {
			return ServerError{}, false
		}
		messages, ok := model.ValidationMessages(value)
		if !ok {
			return ServerError{}, false
		}
		return ServerError{Messages: messages}, true
	}
}

// DecodedString returns an extractor that JSON-decodes a string value and runs
// the inner extractors against the result.
func DecodedString(inner ...Extractor) Extractor {
	return func(raw any) (ServerError, bool) {
		text, ok := raw.(string)
		if !ok {
			return ServerError{}, false
		}
		var decoded any
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return ServerError{}, false
		}
		for _, extract := range inner {
			if parsed, ok := extract(decoded); ok {
				return parsed, true
			}
		}
		return ServerError{}, false
	}
}

// At returns an extractor that runs inner against the value found at path.
func At(inner Extractor, path ...string) Extractor {
	return func(raw any) (ServerError, bool) {
		value, ok := lookup(raw, path...)
		if !ok || inner == nil {
			return ServerError{}, false
		}
		return inner(value)
	}
}

// PlainMessage reads a top-level "message" string.
func PlainMessage(raw any) (ServerError, bool) {
	value, ok := lookup(raw, "message")
	if !ok {
		return ServerError{}, false
	}
	text, ok := value.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return ServerError{}, false
	}
	return ServerError{Message: text}, true
}

// DefaultExtractors lists the known error shapes in priority order. The order
// decides which message surfaces when several shapes are present.
func DefaultExtractors() []Extractor {
	messagePaths := []Extractor{
		MessagesAt("data", "messages"),
		MessagesAt("response", "_data", "messages"),
		MessagesAt("validation_messages"),
		MessagesAt("message", "validation_messages"),
	}

	decoded := DecodedString(append(append([]Extractor{}, messagePaths...), PlainMessage)...)

	// A transport error carries a string body under "data" when the response
	// was a JSON-encoded string.
	out := make([]Extractor, 0, len(messagePaths)+3)
	out = append(out, messagePaths...)
	out = append(out, decoded, At(decoded, "data"))
	out = append(out, PlainMessage)
	return out
}

// ParseServerError runs extractors in order and returns the first match. With
// no extractors the defaults apply.
func ParseServerError(raw any, extractors ...Extractor) ServerError {
	if raw == nil {
		return ServerError{}
	}
	if len(extractors) == 0 {
		extractors = DefaultExtractors()
	}
	for _, extract := range extractors {
		if extract == nil {
			continue
		}
		if parsed, ok := extract(raw); ok {
			return parsed
		}
	}
	return ServerError{}
}

func lookup(raw any, path ...string) (any, bool) {
	current := raw
	for _, segment := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, len(path) > 0
}

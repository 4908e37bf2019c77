package forwarder

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-gfbridge/pkg/model"
	"github.com/goliatone/go-gfbridge/pkg/upstream"
)

// Sub-inputs of the advanced name field (id 1). Gravity Forms validates the
// parent input_1, so the full name is rebuilt there.
const (
	nameParentKey = "input_1"
	namePrefixKey = "input_1.2"
	nameFirstKey  = "input_1.3"
	nameMiddleKey = "input_1.4"
	nameLastKey   = "input_1.6"
	nameSuffixKey = "input_1.8"
)

var (
	formIDPattern = regexp.MustCompile(`^[1-9]\d*$`)
	zeroIDPattern = regexp.MustCompile(`^0+$`)
)

// ResolveFormID picks the form id from body form_id, body formId, query id,
// then query form_id. Ids must be positive integers; a zero id counts as
// missing.
func ResolveFormID(body map[string]any, query url.Values) (string, error) {
	candidates := []string{
		scalarText(body["form_id"]),
		scalarText(body["formId"]),
		strings.TrimSpace(query.Get("id")),
		strings.TrimSpace(query.Get("form_id")),
	}
	for _, candidate := range candidates {
		if candidate == "" || zeroIDPattern.MatchString(candidate) {
			continue
		}
		if !formIDPattern.MatchString(candidate) {
			return "", upstream.BadRequest("Invalid form_id")
		}
		return candidate, nil
	}
	return "", upstream.BadRequest("Missing form_id")
}

// Flatten merges input_values, values and the top-level body into one
// input_* map. The first non-empty value seen for a key wins; later sources
// only fill gaps. Only bare ids and input_* keys are taken, so envelope keys
// such as form_id or source_page never reach the remote API.
func Flatten(body map[string]any) map[string]any {
	flat := make(map[string]any)

	add := func(source any) {
		values, ok := source.(map[string]any)
		if !ok {
			return
		}
		for key, value := range values {
			if !model.IsFilled(value) {
				continue
			}
			remote, ok := remoteKey(key)
			if !ok {
				continue
			}
			if _, exists := flat[remote]; exists {
				continue
			}
			flat[remote] = value
		}
	}

	add(body["input_values"])
	add(body["values"])
	add(body)

	return flat
}

// FixCompositeName defaults the hidden name sub-inputs and writes the joined
// first and last name into input_1 whenever either part is present.
func FixCompositeName(flat map[string]any) {
	first, hasFirst := flat[nameFirstKey]
	last, hasLast := flat[nameLastKey]
	if !hasFirst && !hasLast {
		return
	}

	for _, key := range []string{namePrefixKey, nameMiddleKey, nameSuffixKey} {
		if _, exists := flat[key]; !exists {
			flat[key] = ""
		}
	}

	parts := make([]string, 0, 2)
	for _, part := range []any{first, last} {
		if !model.IsFilled(part) {
			continue
		}
		if text := strings.TrimSpace(fmt.Sprint(part)); text != "" {
			parts = append(parts, text)
		}
	}
	if full := strings.TrimSpace(strings.Join(parts, " ")); full != "" {
		flat[nameParentKey] = full
	}
}

func remoteKey(key string) (string, bool) {
	switch {
	case key == "input_values":
		return "", false
	case strings.HasPrefix(key, model.RemoteKeyPrefix):
		if !model.IsNumericKey(model.BareKey(key)) {
			return "", false
		}
		return key, true
	case model.IsNumericKey(key):
		return model.RemoteKey(key), true
	default:
		return "", false
	}
}

func scalarText(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

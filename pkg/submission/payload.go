package submission

import (
	"encoding/json"
	"strings"

	"github.com/goliatone/go-gfbridge/pkg/model"
)

// Pagination markers sent with a client-built payload. The forwarder replaces
// target_page with its own final-page marker.
const (
	SourcePage = 1
	TargetPage = 0
)

// BuildFields trims string values, drops empty ones, rewrites bare numeric keys
// ("3", "1.3") to remote keys and merges extras on top. Extra keys go through
// the same key rewrite so a collision is decided in remote-key space; an empty
// extra removes the key.
func BuildFields(values, extras map[string]any) map[string]any {
	out := make(map[string]any, len(values)+len(extras))

	for key, raw := range values {
		value := trimValue(raw)
		if !isSubmittable(value) {
			continue
		}
		out[normalizeKey(key)] = value
	}

	for key, value := range extras {
		target := normalizeKey(key)
		if !isSubmittable(value) {
			delete(out, target)
			continue
		}
		out[target] = value
	}

	return out
}

// Payload is the body posted by the client to the submit endpoint. The same
// values travel several times: as top-level input_* keys and keyed by bare id
// under values, input_values and field_values. The repetition hedges over
// which shape the remote endpoint reads.
type Payload struct {
	FormID     int
	Fields     map[string]any
	Values     map[string]any
	SourcePage int
	TargetPage int
}

// BuildPayload normalises values and extras into a Payload for formID.
func BuildPayload(formID int, values, extras map[string]any) Payload {
	fields := BuildFields(values, extras)

	flat := make(map[string]any, len(fields))
	bare := make(map[string]any, len(fields))
	for key, value := range fields {
		if !isSubmittable(value) {
			continue
		}
		remote := model.RemoteKey(key)
		flat[remote] = value
		bare[model.BareKey(remote)] = value
	}

	return Payload{
		FormID:     formID,
		Fields:     flat,
		Values:     bare,
		SourcePage: SourcePage,
		TargetPage: TargetPage,
	}
}

// Body returns the wire representation of the payload.
func (p Payload) Body() map[string]any {
	body := make(map[string]any, len(p.Fields)+7)
	body["formId"] = p.FormID
	body["form_id"] = p.FormID
	for key, value := range p.Fields {
		body[key] = value
	}
	body["values"] = cloneMap(p.Values)
	body["input_values"] = cloneMap(p.Values)
	body["field_values"] = cloneMap(p.Values)
	body["source_page"] = p.SourcePage
	body["target_page"] = p.TargetPage
	return body
}

// MarshalJSON encodes Body. Map keys are sorted by encoding/json so identical
// input always produces identical bytes.
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Body())
}

func normalizeKey(key string) string {
	if model.IsNumericKey(key) {
		return model.RemoteKeyPrefix + key
	}
	return key
}

func trimValue(v any) any {
	if text, ok := v.(string); ok {
		return strings.TrimSpace(text)
	}
	return v
}

func isSubmittable(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return value != ""
	default:
		return true
	}
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

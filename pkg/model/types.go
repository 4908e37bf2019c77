package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Kind discriminates the field descriptors the mapper understands.
type Kind string

const (
	KindName     Kind = "name"
	KindEmail    Kind = "email"
	KindPhone    Kind = "phone"
	KindTextArea Kind = "textarea"
	KindOther    Kind = "other"
)

var typenameKinds = map[string]Kind{
	"NameField":     KindName,
	"EmailField":    KindEmail,
	"PhoneField":    KindPhone,
	"TextAreaField": KindTextArea,
}

// ParseKind resolves a GraphQL typename (NameField) or a REST field type
// (name) into a Kind. Unknown values map to KindOther.
func ParseKind(raw string) Kind {
	trimmed := strings.TrimSpace(raw)
	if kind, ok := typenameKinds[trimmed]; ok {
		return kind
	}
	switch Kind(strings.ToLower(trimmed)) {
	case KindName:
		return KindName
	case KindEmail:
		return KindEmail
	case KindPhone:
		return KindPhone
	case KindTextArea:
		return KindTextArea
	default:
		return KindOther
	}
}

// Input describes one sub-input of a composite field, e.g. "1.3" / "First".
type Input struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// UnmarshalJSON accepts ids encoded either as strings ("1.3") or numbers (1.3)
// and null labels.
func (in *Input) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    json.RawMessage `json:"id"`
		Label *string         `json:"label"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	in.ID = rawID(raw.ID)
	in.Label = ""
	if raw.Label != nil {
		in.Label = *raw.Label
	}
	return nil
}

// Descriptor is one entry of a remote form schema.
type Descriptor struct {
	Kind     Kind    `json:"kind"`
	ID       int     `json:"id"`
	Label    string  `json:"label,omitempty"`
	Required bool    `json:"required"`
	Inputs   []Input `json:"inputs,omitempty"`
}

// UnmarshalJSON decodes WPGraphQL and REST field nodes. Nodes whose shape
// cannot be understood decode as KindOther rather than failing the whole
// schema.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	*d = Descriptor{Kind: KindOther}

	var raw struct {
		Typename   string          `json:"__typename"`
		Kind       string          `json:"kind"`
		Type       string          `json:"type"`
		DatabaseID json.RawMessage `json:"databaseId"`
		ID         json.RawMessage `json:"id"`
		Label      *string         `json:"label"`
		IsRequired *bool           `json:"isRequired"`
		Required   *bool           `json:"required"`
		Inputs     []Input         `json:"inputs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	kind := ParseKind(raw.Typename)
	if kind == KindOther {
		kind = ParseKind(raw.Type)
	}
	if kind == KindOther {
		kind = ParseKind(raw.Kind)
	}

	idText := rawID(raw.DatabaseID)
	if idText == "" {
		idText = rawID(raw.ID)
	}
	id, err := strconv.Atoi(idText)
	if err != nil || id < 0 {
		return nil
	}

	d.Kind = kind
	d.ID = id
	if raw.Label != nil {
		d.Label = *raw.Label
	}
	switch {
	case raw.IsRequired != nil:
		d.Required = *raw.IsRequired
	case raw.Required != nil:
		d.Required = *raw.Required
	}
	d.Inputs = raw.Inputs
	return nil
}

// InputType is the HTML input flavour a ContactField renders as.
type InputType string

const (
	InputText     InputType = "text"
	InputEmail    InputType = "email"
	InputTel      InputType = "tel"
	InputTextArea InputType = "textarea"
)

// ContactField is the UI-facing field produced by the mapper.
type ContactField struct {
	Key          string    `json:"key"`
	Label        string    `json:"label"`
	RemoteKey    string    `json:"gfKey"`
	Type         InputType `json:"type,omitempty"`
	Required     bool      `json:"required,omitempty"`
	Autocomplete string    `json:"autocomplete,omitempty"`
}

func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}
	return ""
}

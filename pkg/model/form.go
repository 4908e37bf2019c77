package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Confirmation is a Gravity Forms confirmation entry ("message", "page" or
// "redirect").
type Confirmation struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
	Type      string `json:"type,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Confirmations keeps the schema's confirmation entries in document order.
// The REST API encodes them as an object keyed by confirmation id; arrays are
// accepted as well.
type Confirmations []Confirmation

// UnmarshalJSON preserves object key order so "first defined" stays stable.
func (c *Confirmations) UnmarshalJSON(data []byte) error {
	*c = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		var list []Confirmation
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("model: decode confirmations: %w", err)
		}
		*c = list
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("model: decode confirmations: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("model: confirmations must be an object or array")
	}

	var out Confirmations
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("model: decode confirmations: %w", err)
		}
		key, _ := keyTok.(string)

		var entry Confirmation
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("model: decode confirmation %q: %w", key, err)
		}
		if entry.ID == "" {
			entry.ID = key
		}
		out = append(out, entry)
	}
	*c = out
	return nil
}

// Form is the subset of the Gravity Forms REST schema the bridge consumes.
type Form struct {
	ID            json.Number   `json:"id,omitempty"`
	Title         string        `json:"title,omitempty"`
	Fields        []Descriptor  `json:"fields,omitempty"`
	Confirmations Confirmations `json:"confirmations,omitempty"`
}

// DefaultConfirmation returns the confirmation flagged isDefault, otherwise
// the first one defined.
func (f Form) DefaultConfirmation() (Confirmation, bool) {
	if len(f.Confirmations) == 0 {
		return Confirmation{}, false
	}
	for _, entry := range f.Confirmations {
		if entry.IsDefault {
			return entry, true
		}
	}
	return f.Confirmations[0], true
}

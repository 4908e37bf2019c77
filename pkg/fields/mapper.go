// Package fields maps a remote form schema onto the contact fields rendered by
// the site. Only name, email, phone and textarea descriptors are understood;
// everything else is skipped.
package fields

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-gfbridge/pkg/model"
)

// MapFields converts descriptors into contact fields, preserving order. A
// composite name field expands in place into first and last name entries.
func MapFields(nodes []model.Descriptor) []model.ContactField {
	out := make([]model.ContactField, 0, len(nodes))

	for _, node := range nodes {
		switch node.Kind {
		case model.KindName:
			out = append(out, nameFields(node)...)
		case model.KindEmail:
			out = append(out, model.ContactField{
				Key:          "email",
				Label:        labelOr(node.Label, "Email"),
				RemoteKey:    model.RemoteKey(strconv.Itoa(node.ID)),
				Type:         model.InputEmail,
				Required:     node.Required,
				Autocomplete: "email",
			})
		case model.KindPhone:
			out = append(out, model.ContactField{
				Key:          "phone",
				Label:        labelOr(node.Label, "Phone"),
				RemoteKey:    model.RemoteKey(strconv.Itoa(node.ID)),
				Type:         model.InputTel,
				Required:     node.Required,
				Autocomplete: "tel",
			})
		case model.KindTextArea:
			out = append(out, model.ContactField{
				Key:       "message",
				Label:     labelOr(node.Label, "Message"),
				RemoteKey: model.RemoteKey(strconv.Itoa(node.ID)),
				Type:      model.InputTextArea,
				Required:  node.Required,
			})
		}
	}

	return out
}

// nameFields picks the first/last sub-inputs by label, falling back to the
// first and second sub-inputs when no label matches.
func nameFields(node model.Descriptor) []model.ContactField {
	if len(node.Inputs) == 0 {
		return nil
	}

	first, ok := findInput(node.Inputs, "first")
	if !ok {
		first, ok = inputAt(node.Inputs, 0)
	}
	var out []model.ContactField
	if ok {
		out = append(out, model.ContactField{
			Key:          "firstName",
			Label:        "First name",
			RemoteKey:    model.RemoteKey(first.ID),
			Type:         model.InputText,
			Required:     node.Required,
			Autocomplete: "given-name",
		})
	}

	last, ok := findInput(node.Inputs, "last")
	if !ok {
		last, ok = inputAt(node.Inputs, 1)
	}
	if ok {
		out = append(out, model.ContactField{
			Key:          "lastName",
			Label:        "Last name",
			RemoteKey:    model.RemoteKey(last.ID),
			Type:         model.InputText,
			Required:     node.Required,
			Autocomplete: "family-name",
		})
	}
	return out
}

func findInput(inputs []model.Input, needle string) (model.Input, bool) {
	for _, input := range inputs {
		if strings.Contains(strings.ToLower(input.Label), needle) {
			return input, true
		}
	}
	return model.Input{}, false
}

func inputAt(inputs []model.Input, idx int) (model.Input, bool) {
	if idx < 0 || idx >= len(inputs) {
		return model.Input{}, false
	}
	return inputs[idx], true
}

func labelOr(label, fallback string) string {
	if strings.TrimSpace(label) == "" {
		return fallback
	}
	return label
}

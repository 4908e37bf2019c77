package wpgraphql

import (
	"context"
	"errors"
	"strconv"

	"github.com/goliatone/go-gfbridge/pkg/model"
)

// ErrFormNotFound is returned when gfForm resolves to null.
var ErrFormNotFound = errors.New("wpgraphql: form not found")

var formFieldsQuery = MustParse("GetContactForm", `
query GetContactForm($id: ID!) {
  gfForm(id: $id, idType: DATABASE_ID) {
    databaseId
    title
    formFields {
      nodes {
        __typename
        databaseId
        type
        ... on NameField {
          label
          isRequired
          inputs { id label }
        }
        ... on EmailField {
          label
          isRequired
        }
        ... on PhoneField {
          label
          isRequired
        }
        ... on TextAreaField {
          label
          isRequired
        }
      }
    }
  }
}
`)

// FormSchema is the gfForm node.
type FormSchema struct {
	DatabaseID int
	Title      string
	Fields     []model.Descriptor
}

type formFieldsData struct {
	GFForm *struct {
		DatabaseID int    `json:"databaseId"`
		Title      string `json:"title"`
		FormFields struct {
			Nodes []model.Descriptor `json:"nodes"`
		} `json:"formFields"`
	} `json:"gfForm"`
}

// FormFields loads the field descriptors for a form. Malformed nodes decode
// as model.KindOther and are skipped by the field mapper.
func (c *Client) FormFields(ctx context.Context, formID int) (FormSchema, error) {
	var data formFieldsData
	if err := c.Query(ctx, formFieldsQuery, map[string]any{"id": strconv.Itoa(formID)}, &data); err != nil {
		if errors.Is(err, ErrEmptyData) {
			return FormSchema{}, ErrFormNotFound
		}
		return FormSchema{}, err
	}
	if data.GFForm == nil {
		return FormSchema{}, ErrFormNotFound
	}
	return FormSchema{
		DatabaseID: data.GFForm.DatabaseID,
		Title:      data.GFForm.Title,
		Fields:     data.GFForm.FormFields.Nodes,
	}, nil
}

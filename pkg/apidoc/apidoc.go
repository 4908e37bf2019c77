// Package apidoc embeds and validates the OpenAPI description of the bridge
// endpoints.
package apidoc

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawDocument []byte

// Raw returns the embedded YAML document.
func Raw() []byte {
	return append([]byte(nil), rawDocument...)
}

// Document is a loaded and validated API description.
type Document struct {
	spec *openapi3.T
	json []byte
}

// Load parses and validates the embedded document.
func Load(ctx context.Context) (*Document, error) {
	return LoadFromData(ctx, rawDocument)
}

// LoadFromData parses and validates an OpenAPI document.
func LoadFromData(ctx context.Context, data []byte) (*Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(data) == 0 {
		return nil, errors.New("apidoc: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("apidoc: load document: %w", err)
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("apidoc: document does not contain any paths")
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("apidoc: validate: %w", err)
	}

	encoded, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("apidoc: encode document: %w", err)
	}
	return &Document{spec: spec, json: encoded}, nil
}

// Spec exposes the parsed document.
func (d *Document) Spec() *openapi3.T {
	if d == nil {
		return nil
	}
	return d.spec
}

// JSON returns the document encoded as JSON.
func (d *Document) JSON() []byte {
	if d == nil {
		return nil
	}
	return append([]byte(nil), d.json...)
}

// Operation is one documented route.
type Operation struct {
	ID     string
	Method string
	Path   string
}

// Operations lists the documented routes sorted by path then method.
func (d *Document) Operations() []Operation {
	if d == nil || d.spec == nil || d.spec.Paths == nil {
		return nil
	}
	var out []Operation
	for path, item := range d.spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			out = append(out, Operation{ID: op.OperationID, Method: strings.ToUpper(method), Path: path})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// Handler serves the document as JSON.
func (d *Document) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(d.JSON())
	})
}

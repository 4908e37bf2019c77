package wpgraphql

import (
	"fmt"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
)

// Document is a GraphQL query that parsed cleanly.
type Document struct {
	Text      string
	Operation string
}

// Parse checks the query syntax and records the first operation name.
func Parse(name, text string) (Document, error) {
	src := source.NewSource(&source.Source{
		Body: []byte(text),
		Name: name,
	})
	doc, err := parser.Parse(parser.ParseParams{Source: src})
	if err != nil {
		return Document{}, fmt.Errorf("wpgraphql: parse %s: %w", name, err)
	}

	out := Document{Text: text}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if op.Name != nil {
			out.Operation = op.Name.Value
		}
		return out, nil
	}
	return Document{}, fmt.Errorf("wpgraphql: %s has no operation", name)
}

// MustParse is Parse for package-level queries.
func MustParse(name, text string) Document {
	doc, err := Parse(name, text)
	if err != nil {
		panic(err)
	}
	return doc
}

package gravityforms

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux and chi.Router.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// Routes lists the mounted patterns.
type Routes struct {
	Schema string
	Submit string
	Fields string
}

// MountPaths returns the full mount paths for the component routes under
// basePath.
func MountPaths(basePath string, fns ...OptionFn) Routes {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	return routesFor(basePath, opts)
}

// RegisterRoutes registers the schema, fields and submit handlers under
// basePath on mux.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (Routes, error) {
	opts := NewOptions(fns...)
	return RegisterRoutesWithOptions(mux, basePath, opts)
}

// RegisterRoutesWithOptions registers the handlers using a pre-built Options
// value.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (Routes, error) {
	if mux == nil {
		return Routes{}, fmt.Errorf("gravityforms: missing mux")
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	routes := routesFor(basePath, opts)
	if routes.Schema == routes.Submit || routes.Schema == routes.Fields || routes.Submit == routes.Fields {
		return Routes{}, fmt.Errorf("gravityforms: route paths must be distinct: %+v", routes)
	}
	mux.Handle(routes.Schema, SchemaHandlerWithOptions(opts))
	mux.Handle(routes.Fields, FieldsHandlerWithOptions(opts))
	mux.Handle(routes.Submit, SubmitHandlerWithOptions(opts))
	return routes, nil
}

func routesFor(basePath string, opts Options) Routes {
	schema := opts.SchemaPath
	if schema == "" {
		schema = defaultSchemaPath
	}
	submit := opts.SubmitPath
	if submit == "" {
		submit = defaultSubmitPath
	}
	fieldsPath := opts.FieldsPath
	if fieldsPath == "" {
		fieldsPath = defaultFieldsPath
	}
	return Routes{
		Schema: mountPath(basePath, schema),
		Submit: mountPath(basePath, submit),
		Fields: mountPath(basePath, fieldsPath),
	}
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}

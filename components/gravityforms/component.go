package gravityforms

import "net/http"

// Component wraps the bridge handlers, their configuration, and routing
// helpers.
type Component struct {
	opts Options
}

// New constructs a new component with default options plus any overrides.
func New(fns ...OptionFn) *Component {
	opts := NewOptions(fns...)
	return &Component{opts: opts}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return NewOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

func (c *Component) SchemaHandler() http.Handler {
	return SchemaHandlerWithOptions(c.Options())
}

func (c *Component) FieldsHandler() http.Handler {
	return FieldsHandlerWithOptions(c.Options())
}

func (c *Component) SubmitHandler() http.Handler {
	return SubmitHandlerWithOptions(c.Options())
}

// RegisterRoutes registers the component handlers under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (Routes, error) {
	return RegisterRoutesWithOptions(mux, basePath, c.Options())
}

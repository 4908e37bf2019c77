package template

// TemplateRenderer renders a named template with per-call data.
type TemplateRenderer interface {
	RenderTemplate(name string, data map[string]any) (string, error)
}

// Package contact renders mapped contact fields and submission state as a
// server-side HTML form.
package contact

import (
	"context"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-gfbridge/pkg/model"
	rendertemplate "github.com/goliatone/go-gfbridge/pkg/render/template"
	gotemplate "github.com/goliatone/go-gfbridge/pkg/render/template/gotemplate"
	"github.com/goliatone/go-gfbridge/pkg/submission"
)

const (
	DefaultAction       = "/api/gravity-submit"
	DefaultSubmitLabel  = "Send"
	DefaultConfirmation = "Thanks! Your message has been sent."
)

type Option func(*config)

type config struct {
	templateFS  fs.FS
	templateDir string
	theme       *theme.RendererConfig
	action      string
	submitLabel string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateDir = path
	}
}

// WithTheme applies resolved theme configuration, see ThemeConfig.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithAction sets the form action URL.
func WithAction(action string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(action) != "" {
			cfg.action = strings.TrimSpace(action)
		}
	}
}

func WithSubmitLabel(label string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(label) != "" {
			cfg.submitLabel = strings.TrimSpace(label)
		}
	}
}

// View is everything needed to render one form. Action overrides the
// renderer's default form action when set.
type View struct {
	FormID int
	Title  string
	Action string
	Fields []model.ContactField
	Values map[string]any
	State  submission.State
}

type Renderer struct {
	templates rendertemplate.TemplateRenderer
	action    string
}

// New constructs the contact renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:  TemplatesFS(),
		action:      DefaultAction,
		submitLabel: DefaultSubmitLabel,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	source := gotemplate.WithFS(cfg.templateFS)
	if cfg.templateDir != "" {
		source = gotemplate.WithDir(cfg.templateDir)
	}
	engine, err := gotemplate.New(
		source,
		gotemplate.WithExtension(".tpl"),
		gotemplate.WithFilter("input_id", filterInputID),
		gotemplate.WithGlobals(map[string]any{
			"theme":                buildThemeContext(cfg.theme),
			"submit_label":         cfg.submitLabel,
			"default_confirmation": DefaultConfirmation,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("contact renderer: configure template renderer: %w", err)
	}

	return &Renderer{
		templates: engine,
		action:    cfg.action,
	}, nil
}

func (r *Renderer) Name() string {
	return "contact"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the form markup, or the confirmation once the state reports
// success.
func (r *Renderer) Render(ctx context.Context, view View) ([]byte, error) {
	if r == nil || r.templates == nil {
		return nil, fmt.Errorf("contact renderer: template renderer is nil")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	result, err := r.templates.RenderTemplate("form", r.templateData(view))
	if err != nil {
		return nil, fmt.Errorf("contact renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) templateData(view View) map[string]any {
	fields := make([]map[string]any, 0, len(view.Fields))
	for _, field := range view.Fields {
		inputType := string(field.Type)
		if inputType == "" {
			inputType = string(model.InputText)
		}
		fields = append(fields, map[string]any{
			"name":         field.RemoteKey,
			"label":        field.Label,
			"type":         inputType,
			"required":     field.Required,
			"autocomplete": field.Autocomplete,
			"value":        valueText(view.Values, field.RemoteKey),
			"error":        view.State.FieldErrors[model.ParentID(field.RemoteKey)],
		})
	}

	action := r.action
	if strings.TrimSpace(view.Action) != "" {
		action = view.Action
	}
	data := map[string]any{
		"form_id":           strconv.Itoa(view.FormID),
		"title":             view.Title,
		"action":            action,
		"fields":            fields,
		"submitting":        view.State.Submitting,
		"success":           view.State.Success,
		"error":             view.State.ErrorMsg,
		"confirmation_html": "",
	}
	if view.State.Success && showsMessage(view.State.ConfirmationType) {
		data["confirmation_html"] = SanitizeConfirmation(view.State.ConfirmationMessage)
	}
	return data
}

func showsMessage(confirmationType string) bool {
	switch strings.ToLower(strings.TrimSpace(confirmationType)) {
	case "", "message":
		return true
	default:
		return false
	}
}

// valueText looks a value up by remote key, then by bare id.
func valueText(values map[string]any, remoteKey string) string {
	if len(values) == 0 {
		return ""
	}
	value, ok := values[remoteKey]
	if !ok {
		value, ok = values[model.BareKey(remoteKey)]
	}
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

// filterInputID turns a remote key such as "input_3.1" into an id attribute
// value ("input_3_1").
func filterInputID(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strings.ReplaceAll(in.String(), ".", "_")), nil
}

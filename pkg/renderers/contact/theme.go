package contact

import (
	"path"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// StylesheetAsset is the asset key looked up for the contact form stylesheet.
const StylesheetAsset = "contact.stylesheet"

// ThemeConfig resolves a manifest and optional variant into renderer
// configuration. Variant tokens, templates and asset files override the base
// manifest; unknown variants fall back to the base.
func ThemeConfig(manifest *theme.Manifest, variant string) *theme.RendererConfig {
	if manifest == nil {
		return nil
	}

	tokens := copyStringMap(manifest.Tokens)
	partials := copyStringMap(manifest.Templates)
	files := copyStringMap(manifest.Assets.Files)
	prefix := manifest.Assets.Prefix

	selected, ok := manifest.Variants[variant]
	if !ok {
		variant = ""
	} else {
		tokens = mergeStringMaps(tokens, selected.Tokens)
		partials = mergeStringMaps(partials, selected.Templates)
		files = mergeStringMaps(files, selected.Assets.Files)
		if selected.Assets.Prefix != "" {
			prefix = selected.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	return &theme.RendererConfig{
		Theme:    manifest.Name,
		Variant:  variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.HasPrefix(file, "/") || strings.Contains(file, "://") || prefix == "" {
				return file
			}
			return path.Join(prefix, file)
		},
	}
}

func buildThemeContext(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	ctx := map[string]any{
		"name":           cfg.Theme,
		"variant":        cfg.Variant,
		"css_vars_style": cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		ctx["stylesheet"] = cfg.AssetURL(StylesheetAsset)
	}
	return ctx
}

// cssVarsStyle renders vars as a .gf-contact rule. Values are stripped of
// characters that could close the rule or the style element.
func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(".gf-contact {\n")
	for _, key := range keys {
		b.WriteString(cssSafe(key))
		b.WriteString(": ")
		b.WriteString(cssSafe(vars[key]))
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func cssSafe(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '{', '}', ';', '"', '\'', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(value))
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func mergeStringMaps(base, override map[string]string) map[string]string {
	if base == nil {
		base = make(map[string]string, len(override))
	}
	for key, value := range override {
		base[key] = value
	}
	return base
}

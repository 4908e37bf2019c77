// Package template defines the template rendering seam used by the HTML
// renderers. The pongo2-backed implementation lives in the gotemplate
// subpackage.
package template

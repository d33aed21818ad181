// Package render turns job script templates into submittable text.
//
// The submission pipeline only depends on the Renderer interface; the
// default implementation is a templates directory of Go text templates.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// TemplateNotFoundError reports a recipe referencing a template id that the
// renderer cannot find. Fatal for the attempt; reported verbatim to the
// user.
type TemplateNotFoundError struct {
	ID string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.ID)
}

// Renderer renders a template id against a context map.
type Renderer interface {
	Render(templateID string, context map[string]any) (string, error)
}

// DirRenderer renders templates from a directory on disk. Template ids are
// file names relative to the directory.
type DirRenderer struct {
	dir string
}

// NewDirRenderer creates a renderer over the given templates directory.
func NewDirRenderer(dir string) *DirRenderer {
	return &DirRenderer{dir: dir}
}

// Render loads and executes the named template. Missing context keys render
// as zero values rather than failing, so optional recipe parameters can be
// omitted.
func (r *DirRenderer) Render(templateID string, context map[string]any) (string, error) {
	path := filepath.Join(r.dir, templateID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &TemplateNotFoundError{ID: templateID}
		}
		return "", fmt.Errorf("read template %s: %w", templateID, err)
	}
	return execute(templateID, string(data), context)
}

// String renders an inline template string (e.g. a templated output-parser
// file path) against the context. Plain strings with no template actions
// pass through unchanged.
func String(text string, context map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	return execute("inline", text, context)
}

func execute(name, text string, context map[string]any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, context); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	// missingkey=zero prints "<no value>" for nil map lookups; scrub it so
	// absent optional keys render empty.
	return strings.ReplaceAll(b.String(), "<no value>", ""), nil
}

// Package render defines the seams to the collaborators that turn a
// validated submission into a document and a model's instructions into HTML,
// together with default implementations backed by pongo2 and bluemonday.
package render

import (
	"context"
	"errors"
)

// ErrTemplateNotFound is returned when a model's template file is missing.
var ErrTemplateNotFound = errors.New("render: template not found")

// Template identifies the model template a document is produced from.
type Template struct {
	// Model is the name of the model owning the template.
	Model string
	// Path is the absolute path of the template file.
	Path string
	// Dir is the model folder. Includes and extends resolve against it.
	Dir string
}

// DocumentRenderer produces an output file from a model template and a
// validated context, returning the path written.
type DocumentRenderer interface {
	Render(ctx context.Context, tmpl Template, data map[string]any, dest string) (string, error)
}

// DocumentFunc adapts a function to DocumentRenderer.
type DocumentFunc func(ctx context.Context, tmpl Template, data map[string]any, dest string) (string, error)

// Render calls f.
func (f DocumentFunc) Render(ctx context.Context, tmpl Template, data map[string]any, dest string) (string, error) {
	return f(ctx, tmpl, data, dest)
}

// InstructionsRenderer converts raw instructions text into an HTML fragment.
type InstructionsRenderer interface {
	RenderInstructions(text string) (string, error)
}

// InstructionsFunc adapts a function to InstructionsRenderer.
type InstructionsFunc func(text string) (string, error)

// RenderInstructions calls f.
func (f InstructionsFunc) RenderInstructions(text string) (string, error) {
	return f(text)
}

package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"
)

// PongoOption configures the pongo2 document renderer.
type PongoOption func(*Pongo)

// WithGlobals seeds values available to every template.
func WithGlobals(data map[string]any) PongoOption {
	return func(p *Pongo) {
		for key, value := range data {
			if key = strings.TrimSpace(key); key != "" {
				p.globals[key] = value
			}
		}
	}
}

// WithFilter registers a template filter. Filters are process wide in
// pongo2; a name that already exists is left untouched.
func WithFilter(name string, fn FilterFunc) PongoOption {
	return func(p *Pongo) {
		if name = strings.TrimSpace(name); name != "" && fn != nil {
			p.filters[name] = fn
		}
	}
}

// Pongo renders model templates with pongo2 (Django syntax). Templates are
// parsed from disk on every call so edits to a model are picked up.
type Pongo struct {
	globals pongo2.Context
	filters map[string]FilterFunc
}

var _ DocumentRenderer = (*Pongo)(nil)

// NewPongo builds the default document renderer.
func NewPongo(options ...PongoOption) (*Pongo, error) {
	p := &Pongo{
		globals: pongo2.Context{},
		filters: map[string]FilterFunc{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	for _, filters := range []map[string]FilterFunc{p.filters, builtinFilters} {
		for name, fn := range filters {
			if err := registerFilter(name, fn); err != nil {
				return nil, fmt.Errorf("render: register filter %q: %w", name, err)
			}
		}
	}
	globals, err := templateContext(p.globals)
	if err != nil {
		return nil, fmt.Errorf("render: convert globals: %w", err)
	}
	p.globals = globals
	return p, nil
}

// Render executes the template with data and writes the result to dest,
// creating parent folders as needed.
func (p *Pongo) Render(ctx context.Context, tmpl Template, data map[string]any, dest string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(dest) == "" {
		return "", errors.New("render: destination is required")
	}
	dir := tmpl.Dir
	if dir == "" {
		dir = filepath.Dir(tmpl.Path)
	}
	name, err := filepath.Rel(dir, tmpl.Path)
	if err != nil {
		return "", fmt.Errorf("render: template %s: %w", tmpl.Path, err)
	}
	if _, err := os.Stat(tmpl.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, tmpl.Path)
		}
		return "", fmt.Errorf("render: template %s: %w", tmpl.Path, err)
	}

	loader, err := pongo2.NewLocalFileSystemLoader(dir)
	if err != nil {
		return "", fmt.Errorf("render: create loader: %w", err)
	}
	set := pongo2.NewSet(tmpl.Model, loader)
	if set.Globals == nil {
		set.Globals = make(pongo2.Context)
	}
	set.Globals.Update(p.globals)

	compiled, err := set.FromFile(filepath.ToSlash(name))
	if err != nil {
		return "", fmt.Errorf("render: load template %q: %w", name, err)
	}
	viewContext, err := templateContext(data)
	if err != nil {
		return "", fmt.Errorf("render: convert data: %w", err)
	}

	var buf bytes.Buffer
	if err := compiled.ExecuteWriter(viewContext, &buf); err != nil {
		return "", fmt.Errorf("render: execute template %q: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("render: create %s: %w", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("render: write %s: %w", dest, err)
	}
	return dest, nil
}

// FilterFunc is a template filter expressed on plain Go values.
type FilterFunc func(input any, param any) (any, error)

var builtinFilters = map[string]FilterFunc{
	"trim": func(input any, _ any) (any, error) {
		return strings.TrimSpace(fmt.Sprint(orEmpty(input))), nil
	},
	"lowerfirst": func(input any, _ any) (any, error) {
		text := fmt.Sprint(orEmpty(input))
		idx := strings.IndexFunc(text, func(r rune) bool { return !unicode.IsSpace(r) })
		if idx < 0 {
			return text, nil
		}
		r, size := utf8.DecodeRuneInString(text[idx:])
		return text[:idx] + string(unicode.ToLower(r)) + text[idx+size:], nil
	},
}

// registerFilter adapts fn to pongo2. Filters live in a process-wide table,
// so the first registration of a name sticks.
func registerFilter(name string, fn FilterFunc) error {
	if pongo2.FilterExists(name) {
		return nil
	}
	return pongo2.RegisterFilter(name, func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		out, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(out), nil
	})
}

func orEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}

// templateContext turns submission data into a pongo2 context of plain maps,
// slices and scalars so templates can use dotted lookups on any value.
func templateContext(in map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(in))
	for key, value := range in {
		if key = strings.TrimSpace(key); key == "" {
			continue
		}
		plain, err := plainValue(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = plain
	}
	return out, nil
}

var timeType = reflect.TypeOf(time.Time{})

func plainValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type() == timeType {
		return value, nil
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return viaJSON(value)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			plain, err := plainValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = plain
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return value, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			plain, err := plainValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = plain
		}
		return out, nil
	case reflect.Struct, reflect.Pointer, reflect.Interface:
		return viaJSON(value)
	default:
		return value, nil
	}
}

// viaJSON decodes a value through its JSON form, honouring json tags.
func viaJSON(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	if decoded == nil {
		return nil, nil
	}
	return plainValue(decoded)
}

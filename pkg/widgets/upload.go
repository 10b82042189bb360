package widgets

import (
	"reflect"
	"strings"
)

// Upload references files previously stored for this field in the session
// asset store. Submitted filenames are converted to stored file paths.
type Upload struct {
	base
	accept   string
	multiple bool
	assets   AssetSource
}

// NewUpload constructs an Upload widget.
func NewUpload(cfg Config, env Env) (Widget, error) {
	b, err := newBase(cfg, env)
	if err != nil {
		return nil, err
	}
	return &Upload{
		base:     b,
		accept:   cfg.Accept,
		multiple: cfg.Multiple,
		assets:   env.Assets,
	}, nil
}

// Layout describes the upload control for form clients.
func (w *Upload) Layout() (Layout, error) {
	return w.layout("upload_widget", map[string]any{
		"accept":   w.accept,
		"multiple": w.multiple,
		"required": w.required,
	}), nil
}

// ConvertData resolves submitted filenames against the session assets. A
// single-file upload converts to a path string, a multiple upload to a list.
func (w *Upload) ConvertData(raw any) (any, error) {
	names, ok := uploadNames(raw)
	if !ok {
		return nil, &ValidationError{Field: w.name, Message: "Invalid file reference"}
	}
	if len(names) == 0 {
		if w.required {
			return nil, &ValidationError{Field: w.name, Message: MessageRequired}
		}
		if w.multiple {
			return w.run([]string{})
		}
		return w.run("")
	}
	if !w.multiple && len(names) > 1 {
		return nil, &ValidationError{Field: w.name, Message: "Only one file may be attached"}
	}
	if w.assets == nil {
		return nil, &ValidationError{Field: w.name, Message: "File uploads are not available"}
	}
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path, found := w.assets.Get(w.name, name)
		if !found {
			return nil, Invalid("File %q was not uploaded", name)
		}
		paths = append(paths, path)
	}
	if w.multiple {
		return w.run(paths)
	}
	return w.run(paths[0])
}

// DefaultData returns an empty reference.
func (w *Upload) DefaultData() (any, error) {
	if w.multiple {
		return []string{}, nil
	}
	return "", nil
}

func uploadNames(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, true
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, true
		}
		return []string{strings.TrimSpace(v)}, true
	case []string:
		return compactNames(v), true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	names := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		name, ok := rv.Index(i).Interface().(string)
		if !ok {
			return nil, false
		}
		names = append(names, name)
	}
	return compactNames(names), true
}

func compactNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

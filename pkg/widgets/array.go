package widgets

import (
	"errors"
	"reflect"
)

// Array repeats a nested grid of widgets once per submitted item. Each item
// is converted by its own Composite pass over the nested form.
type Array struct {
	base
	form Form
}

// NewArray constructs an Array widget from the nested rows in cfg.Widgets.
func NewArray(cfg Config, env Env) (Widget, error) {
	b, err := newBase(cfg, env)
	if err != nil {
		return nil, err
	}
	if len(cfg.Widgets) == 0 {
		return nil, errors.New("array widget needs nested widgets")
	}
	reg := env.Registry
	if reg == nil {
		reg = builtinRegistry()
	}
	form, err := reg.BuildForm(cfg.Widgets, env)
	if err != nil {
		return nil, err
	}
	return &Array{base: b, form: form}, nil
}

// Form exposes the nested widget grid.
func (w *Array) Form() Form { return w.form }

// Layout describes the repeated grid and the data a new item starts with.
func (w *Array) Layout() (Layout, error) {
	nested, err := w.form.Layout()
	if err != nil {
		return Layout{}, err
	}
	defaults, err := w.form.DefaultData()
	if err != nil {
		return Layout{}, err
	}
	return w.layout("array_widget", map[string]any{
		"widgets":           nested,
		"default_item_data": defaults,
	}), nil
}

// ConvertData converts every submitted item. When any item fails the field
// error is an *ItemErrors holding one Errors per item.
func (w *Array) ConvertData(raw any) (any, error) {
	items, ok := arrayItems(raw)
	if !ok {
		return nil, &ValidationError{Field: w.name, Message: "Expected a list of items"}
	}
	if w.required && len(items) == 0 {
		return nil, &ValidationError{Field: w.name, Message: MessageRequired}
	}

	composite := NewComposite(w.form)
	values := make([]Context, len(items))
	itemErrs := make([]Errors, len(items))
	failed := false
	for idx, item := range items {
		ctx, errs := composite.ConvertData(item)
		if !errs.Empty() {
			itemErrs[idx] = errs
			failed = true
			continue
		}
		values[idx] = ctx
	}
	if failed {
		return nil, &ItemErrors{Field: w.name, Items: itemErrs}
	}
	return w.run(values)
}

// DefaultData starts arrays empty.
func (w *Array) DefaultData() (any, error) {
	return []Context{}, nil
}

func arrayItems(raw any) ([]map[string]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, true
	case []map[string]any:
		return v, true
	case []Context:
		out := make([]map[string]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]map[string]any, rv.Len())
	for i := range out {
		switch item := rv.Index(i).Interface().(type) {
		case map[string]any:
			out[i] = item
		case Context:
			out[i] = item
		case nil:
			out[i] = map[string]any{}
		default:
			return nil, false
		}
	}
	return out, true
}

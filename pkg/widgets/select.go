package widgets

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-reportwriter/pkg/lists"
)

// Select picks one option from an inline list or a named model list. The
// submitted value is a {key, value} pair; only value is converted.
type Select struct {
	base
	defaultKey string
	listName   string
	inline     []lists.Item
	source     ListSource

	// resolved memoises the option set for the lifetime of this instance.
	resolved []lists.Item
}

// NewSelect constructs a Select widget. Options may be a list name, a list of
// strings, or a list of {key, value} mappings.
func NewSelect(cfg Config, env Env) (Widget, error) {
	b, err := newBase(cfg, env)
	if err != nil {
		return nil, err
	}
	w := &Select{
		base:       b,
		defaultKey: stringify(cfg.Default),
		source:     env.Lists,
	}
	switch opts := cfg.Options.(type) {
	case string:
		w.listName = strings.TrimSpace(opts)
	case nil:
	default:
		items, err := parseInlineOptions(opts)
		if err != nil {
			return nil, err
		}
		w.inline = items
	}
	return w, nil
}

// Options resolves the option set, reading the named list at most once.
// An empty option set is an error.
func (w *Select) Options() ([]lists.Item, error) {
	if w.resolved == nil {
		items, err := w.resolve()
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []lists.Item{}
		}
		w.resolved = items
	}
	if len(w.resolved) == 0 {
		return nil, fmt.Errorf("%w (field %q)", ErrNoOptions, w.name)
	}
	return w.resolved, nil
}

func (w *Select) resolve() ([]lists.Item, error) {
	if w.listName == "" {
		return append([]lists.Item(nil), w.inline...), nil
	}
	if w.source == nil {
		return nil, nil
	}
	return w.source.Resolve(w.listName)
}

// Layout describes the select for form clients including its options.
func (w *Select) Layout() (Layout, error) {
	options, err := w.Options()
	if err != nil {
		return Layout{}, err
	}
	return w.layout("select_widget", map[string]any{
		"options":  options,
		"required": w.required,
	}), nil
}

// ConvertData extracts the value half of the submitted pair.
func (w *Select) ConvertData(raw any) (any, error) {
	value, ok := selectedValue(raw)
	if !ok {
		return nil, &ValidationError{Field: w.name, Message: "Invalid selection"}
	}
	if w.required && strings.TrimSpace(value) == "" {
		return nil, &ValidationError{Field: w.name, Message: MessageRequired}
	}
	return w.run(value)
}

// DefaultData returns the option whose key equals the configured default,
// or the first option when none matches.
func (w *Select) DefaultData() (any, error) {
	options, err := w.Options()
	if err != nil {
		return nil, err
	}
	for _, item := range options {
		if item.Key == w.defaultKey {
			return item, nil
		}
	}
	return options[0], nil
}

func selectedValue(raw any) (string, bool) {
	switch v := raw.(type) {
	case lists.Item:
		return v.Value, true
	case *lists.Item:
		if v == nil {
			return "", false
		}
		return v.Value, true
	case map[string]any:
		value, ok := v["value"]
		if !ok {
			return "", false
		}
		return stringify(value), true
	case map[string]string:
		value, ok := v["value"]
		return value, ok
	}
	return "", false
}

func parseInlineOptions(raw any) ([]lists.Item, error) {
	switch opts := raw.(type) {
	case []lists.Item:
		return append([]lists.Item(nil), opts...), nil
	case []string:
		return lists.FromStrings(opts...), nil
	case []any:
		out := make([]lists.Item, 0, len(opts))
		for idx, entry := range opts {
			item, err := parseOption(entry)
			if err != nil {
				return nil, fmt.Errorf("options[%d]: %w", idx, err)
			}
			out = append(out, item)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported options type %T", raw)
}

func parseOption(entry any) (lists.Item, error) {
	switch v := entry.(type) {
	case string:
		return lists.Item{Key: v, Value: v}, nil
	case lists.Item:
		return v, nil
	case map[string]any:
		key, hasKey := v["key"]
		value, hasValue := v["value"]
		if !hasKey && !hasValue {
			return lists.Item{}, fmt.Errorf("option needs key or value")
		}
		if !hasKey {
			key = value
		}
		if !hasValue {
			value = key
		}
		return lists.Item{Key: stringify(key), Value: stringify(value)}, nil
	}
	if f, ok := toFloat(entry); ok {
		text := stringify(f)
		return lists.Item{Key: text, Value: text}, nil
	}
	return lists.Item{}, fmt.Errorf("unsupported option %T", entry)
}

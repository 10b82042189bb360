package widgets

import "strings"

// Text is a single-line text input.
type Text struct {
	base
	defaultValue string
	placeholder  string
}

// NewText constructs a Text widget.
func NewText(cfg Config, env Env) (Widget, error) {
	b, err := newBase(cfg, env)
	if err != nil {
		return nil, err
	}
	return &Text{
		base:         b,
		defaultValue: stringify(cfg.Default),
		placeholder:  cfg.Placeholder,
	}, nil
}

// Layout describes the input for form clients.
func (w *Text) Layout() (Layout, error) {
	return w.layout("text_widget", map[string]any{
		"placeholder": w.placeholder,
		"required":    w.required,
	}), nil
}

// ConvertData trims the submitted text before converting and validating it.
func (w *Text) ConvertData(raw any) (any, error) {
	return convertText(w.base, raw)
}

// DefaultData returns the configured default text.
func (w *Text) DefaultData() (any, error) {
	return w.defaultValue, nil
}

// TextArea is a multi-line text input.
type TextArea struct {
	base
	defaultValue string
	placeholder  string
	rows         int
}

// DefaultTextAreaRows is used when a text area declares no row count.
const DefaultTextAreaRows = 5

// NewTextArea constructs a TextArea widget.
func NewTextArea(cfg Config, env Env) (Widget, error) {
	b, err := newBase(cfg, env)
	if err != nil {
		return nil, err
	}
	rows := cfg.Rows
	if rows <= 0 {
		rows = DefaultTextAreaRows
	}
	return &TextArea{
		base:         b,
		defaultValue: stringify(cfg.Default),
		placeholder:  cfg.Placeholder,
		rows:         rows,
	}, nil
}

// Layout describes the text area for form clients.
func (w *TextArea) Layout() (Layout, error) {
	return w.layout("text_area_widget", map[string]any{
		"placeholder": w.placeholder,
		"rows":        w.rows,
		"required":    w.required,
	}), nil
}

// ConvertData trims the submitted text before converting and validating it.
func (w *TextArea) ConvertData(raw any) (any, error) {
	return convertText(w.base, raw)
}

// DefaultData returns the configured default text.
func (w *TextArea) DefaultData() (any, error) {
	return w.defaultValue, nil
}

func convertText(b base, raw any) (any, error) {
	text := strings.TrimSpace(stringify(raw))
	if b.required && text == "" {
		return nil, &ValidationError{Field: b.name, Message: MessageRequired}
	}
	return b.run(text)
}

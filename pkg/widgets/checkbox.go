package widgets

import (
	"strconv"
	"strings"
)

// CheckBox is a boolean toggle.
type CheckBox struct {
	base
	defaultValue bool
}

// NewCheckBox constructs a CheckBox widget. A non-boolean default is parsed
// the same way submitted values are.
func NewCheckBox(cfg Config, env Env) (Widget, error) {
	b, err := newBase(cfg, env)
	if err != nil {
		return nil, err
	}
	def, err := parseBool(cfg.Default)
	if err != nil {
		return nil, err
	}
	return &CheckBox{base: b, defaultValue: def}, nil
}

// Layout describes the checkbox for form clients.
func (w *CheckBox) Layout() (Layout, error) {
	return w.layout("checkbox_widget", nil), nil
}

// ConvertData coerces the submitted value to a bool before converting and
// validating it.
func (w *CheckBox) ConvertData(raw any) (any, error) {
	value, err := parseBool(raw)
	if err != nil {
		return nil, asValidationError(w.name, err)
	}
	if w.required && !value {
		return nil, &ValidationError{Field: w.name, Message: MessageRequired}
	}
	return w.run(value)
}

// DefaultData returns the configured default state.
func (w *CheckBox) DefaultData() (any, error) {
	return w.defaultValue, nil
}

func parseBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	}
	if f, ok := toFloat(raw); ok {
		return f != 0, nil
	}
	text := strings.ToLower(strings.TrimSpace(stringify(raw)))
	switch text {
	case "":
		return false, nil
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(text)
	if err != nil {
		return false, Invalid("%q is not a valid yes/no value", text)
	}
	return b, nil
}

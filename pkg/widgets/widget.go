package widgets

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-reportwriter/pkg/lists"
)

// Widget is one form field. Implementations must be safe to use for the
// lifetime of a single request; they are rebuilt from configuration per call.
type Widget interface {
	Name() string
	Layout() (Layout, error)
	ConvertData(raw any) (any, error)
	DefaultData() (any, error)
}

// Layout is the rendering descriptor handed to form clients.
type Layout struct {
	FieldName   string         `json:"field_name" yaml:"field_name"`
	WidgetType  string         `json:"widget_type" yaml:"widget_type"`
	Label       string         `json:"label" yaml:"label"`
	Col         int            `json:"col" yaml:"col"`
	WidgetProps map[string]any `json:"widget_props" yaml:"widget_props"`
}

// Config is the declarative definition of a widget as stored in a model
// descriptor. Fields that do not apply to a variant are ignored by it.
type Config struct {
	Name        string            `json:"name" yaml:"name"`
	Type        string            `json:"type" yaml:"type"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Col         int               `json:"col,omitempty" yaml:"col,omitempty"`
	Default     any               `json:"default,omitempty" yaml:"default,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Rows        int               `json:"rows,omitempty" yaml:"rows,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Options     any               `json:"options,omitempty" yaml:"options,omitempty"`
	Converter   string            `json:"converter,omitempty" yaml:"converter,omitempty"`
	Validators  []ValidatorConfig `json:"validators,omitempty" yaml:"validators,omitempty"`
	Widgets     [][]Config        `json:"widgets,omitempty" yaml:"widgets,omitempty"`
	Accept      string            `json:"accept,omitempty" yaml:"accept,omitempty"`
	Multiple    bool              `json:"multiple,omitempty" yaml:"multiple,omitempty"`
}

// ValidatorConfig names a registered validator with its parameter and an
// optional message overriding the generated one.
type ValidatorConfig struct {
	Type    string `json:"type" yaml:"type"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Context maps field names to converted values. Only fields that converted
// cleanly are present.
type Context map[string]any

// Errors maps field names to a message. Array widgets report a []Errors with
// one entry per submitted item instead, nil for items without problems.
type Errors map[string]any

// Empty reports whether no field failed.
func (e Errors) Empty() bool { return len(e) == 0 }

// Flatten returns every message keyed by dotted path, so the description of
// the second item of "items" is reported as "items.1.description".
func (e Errors) Flatten() map[string]string {
	out := make(map[string]string, len(e))
	e.flattenInto("", out)
	return out
}

func (e Errors) flattenInto(prefix string, out map[string]string) {
	for field, entry := range e {
		key := prefix + field
		switch v := entry.(type) {
		case string:
			out[key] = v
		case []Errors:
			for i, item := range v {
				item.flattenInto(key+"."+strconv.Itoa(i)+".", out)
			}
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}

// ListSource resolves named option sets for the model a form belongs to.
type ListSource interface {
	Resolve(name string) ([]lists.Item, error)
}

// AssetSource locates files previously stored for a field in the current
// session.
type AssetSource interface {
	Get(field, filename string) (string, bool)
}

// Env carries the collaborators a widget may need at construction time.
type Env struct {
	Lists    ListSource
	Assets   AssetSource
	Registry *Registry
}

// Converter turns a normalised value into the value stored in the Context.
type Converter func(value any) (any, error)

// Validator rejects a converted value by returning an error.
type Validator func(value any) error

// base holds the configuration shared by every built-in variant.
type base struct {
	name       string
	label      string
	col        int
	required   bool
	converter  Converter
	validators []Validator
}

func newBase(cfg Config, env Env) (base, error) {
	b := base{
		name:     strings.TrimSpace(cfg.Name),
		label:    strings.TrimSpace(cfg.Label),
		col:      cfg.Col,
		required: cfg.Required,
	}
	if b.name == "" {
		return base{}, ErrMissingName
	}
	if b.label == "" {
		b.label = DefaultLabel(b.name)
	}
	reg := env.Registry
	if reg == nil {
		reg = builtinRegistry()
	}
	if cfg.Converter != "" {
		conv, err := reg.Converter(cfg.Converter)
		if err != nil {
			return base{}, err
		}
		b.converter = conv
	}
	for _, vc := range cfg.Validators {
		v, err := reg.buildValidator(vc)
		if err != nil {
			return base{}, err
		}
		b.validators = append(b.validators, v)
	}
	return b, nil
}

// Name returns the field name.
func (b base) Name() string { return b.name }

func (b base) layout(widgetType string, props map[string]any) Layout {
	if props == nil {
		props = map[string]any{}
	}
	return Layout{
		FieldName:   b.name,
		WidgetType:  widgetType,
		Label:       b.label,
		Col:         b.col,
		WidgetProps: props,
	}
}

// run applies the converter and validators to an already normalised value.
func (b base) run(value any) (any, error) {
	if b.converter != nil {
		converted, err := b.converter(value)
		if err != nil {
			return nil, asValidationError(b.name, err)
		}
		value = converted
	}
	for _, validate := range b.validators {
		if err := validate(value); err != nil {
			return nil, asValidationError(b.name, err)
		}
	}
	return value, nil
}

// DefaultLabel derives a display label from a field name: separators become
// spaces and the first letter is upper-cased.
func DefaultLabel(name string) string {
	replacer := strings.NewReplacer("_", " ", "-", " ")
	text := strings.TrimSpace(replacer.Replace(name))
	if text == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(text)
	return string(unicode.ToUpper(r)) + text[size:]
}

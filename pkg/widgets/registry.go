package widgets

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in widget type identifiers accepted in model descriptors.
const (
	TypeText     = "text"
	TypeTextArea = "text_area"
	TypeCheckBox = "checkbox"
	TypeSelect   = "select"
	TypeArray    = "array"
	TypeUpload   = "upload"
)

// Factory constructs a widget variant from its configuration.
type Factory func(cfg Config, env Env) (Widget, error)

// ValidatorFactory compiles a validator from its declared parameter and
// message override.
type ValidatorFactory func(param any, message string) (Validator, error)

// Registry maps type names to widget factories, converter names to
// converters and validator types to validator factories. Registration is
// explicit; an empty registry builds nothing.
type Registry struct {
	mu         sync.RWMutex
	factories  map[string]Factory
	converters map[string]Converter
	validators map[string]ValidatorFactory
}

var (
	builtinOnce sync.Once
	builtin     *Registry
)

// builtinRegistry returns the shared registry used when a widget is built
// without an explicit one in its Env.
func builtinRegistry() *Registry {
	builtinOnce.Do(func() {
		builtin = NewRegistry()
	})
	return builtin
}

// NewRegistry constructs a registry with the built-in variants, converters
// and validators registered.
func NewRegistry() *Registry {
	reg := NewEmptyRegistry()
	reg.registerBuiltins()
	return reg
}

// NewEmptyRegistry constructs a registry with nothing registered.
func NewEmptyRegistry() *Registry {
	return &Registry{
		factories:  make(map[string]Factory),
		converters: make(map[string]Converter),
		validators: make(map[string]ValidatorFactory),
	}
}

// Register adds a widget factory. The latest registration for a name wins.
func (r *Registry) Register(name string, factory Factory) {
	name = normalizeType(name)
	if r == nil || factory == nil || name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// RegisterConverter adds a named converter.
func (r *Registry) RegisterConverter(name string, conv Converter) {
	name = strings.TrimSpace(name)
	if r == nil || conv == nil || name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[name] = conv
}

// RegisterValidator adds a validator factory for the given type.
func (r *Registry) RegisterValidator(name string, factory ValidatorFactory) {
	name = strings.TrimSpace(name)
	if r == nil || factory == nil || name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = factory
}

// Types lists the registered widget types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Converter returns the converter registered under name.
func (r *Registry) Converter(name string) (Converter, error) {
	r.mu.RLock()
	conv, ok := r.converters[strings.TrimSpace(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConverter, name)
	}
	return conv, nil
}

// Build constructs a single widget. The registry is injected into env when
// the caller left it empty so nested widgets resolve against the same set.
func (r *Registry) Build(cfg Config, env Env) (Widget, error) {
	if env.Registry == nil {
		env.Registry = r
	}
	r.mu.RLock()
	factory, ok := r.factories[normalizeType(cfg.Type)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (field %q)", ErrUnknownWidget, cfg.Type, cfg.Name)
	}
	w, err := factory(cfg, env)
	if err != nil {
		return nil, fmt.Errorf("widgets: build %q: %w", cfg.Name, err)
	}
	return w, nil
}

// BuildForm constructs the widget grid for a form, rejecting duplicate names.
func (r *Registry) BuildForm(rows [][]Config, env Env) (Form, error) {
	seen := make(map[string]struct{})
	form := make(Form, 0, len(rows))
	for _, row := range rows {
		built := make([]Widget, 0, len(row))
		for _, cfg := range row {
			w, err := r.Build(cfg, env)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[w.Name()]; dup {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateName, w.Name())
			}
			seen[w.Name()] = struct{}{}
			built = append(built, w)
		}
		form = append(form, built)
	}
	return form, nil
}

func (r *Registry) buildValidator(cfg ValidatorConfig) (Validator, error) {
	r.mu.RLock()
	factory, ok := r.validators[strings.TrimSpace(cfg.Type)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownValidator, cfg.Type)
	}
	v, err := factory(cfg.Value, cfg.Message)
	if err != nil {
		return nil, fmt.Errorf("widgets: validator %q: %w", cfg.Type, err)
	}
	return v, nil
}

// normalizeType accepts both "select" and the layout spelling "select_widget".
func normalizeType(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(name, "_widget")
}

func (r *Registry) registerBuiltins() {
	r.Register(TypeText, NewText)
	r.Register(TypeTextArea, NewTextArea)
	r.Register(TypeCheckBox, NewCheckBox)
	r.Register(TypeSelect, NewSelect)
	r.Register(TypeArray, NewArray)
	r.Register(TypeUpload, NewUpload)

	for name, conv := range builtinConverters() {
		r.RegisterConverter(name, conv)
	}
	for name, factory := range builtinValidators() {
		r.RegisterValidator(name, factory)
	}
}

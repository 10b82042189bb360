package widgets

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

func builtinValidators() map[string]ValidatorFactory {
	return map[string]ValidatorFactory{
		"required": requiredValidator,
		"min_length": constraintValidator(func(s *openapi3.Schema, param any) error {
			n, err := toUint(param)
			s.MinLength = n
			return err
		}),
		"max_length": constraintValidator(func(s *openapi3.Schema, param any) error {
			n, err := toUint(param)
			s.MaxLength = &n
			return err
		}),
		"pattern": constraintValidator(func(s *openapi3.Schema, param any) error {
			pattern := stringify(param)
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			s.Pattern = pattern
			return nil
		}),
		"minimum": constraintValidator(func(s *openapi3.Schema, param any) error {
			f, ok := toFloat(param)
			if !ok {
				return fmt.Errorf("minimum must be numeric, got %T", param)
			}
			s.Min = &f
			return nil
		}),
		"maximum": constraintValidator(func(s *openapi3.Schema, param any) error {
			f, ok := toFloat(param)
			if !ok {
				return fmt.Errorf("maximum must be numeric, got %T", param)
			}
			s.Max = &f
			return nil
		}),
		"enum": constraintValidator(func(s *openapi3.Schema, param any) error {
			values, ok := param.([]any)
			if !ok || len(values) == 0 {
				return errors.New("enum requires a non-empty list")
			}
			s.Enum = make([]any, len(values))
			for i, v := range values {
				s.Enum[i] = jsonValue(v)
			}
			return nil
		}),
		"min_items": constraintValidator(func(s *openapi3.Schema, param any) error {
			n, err := toUint(param)
			s.MinItems = n
			return err
		}),
		"max_items": constraintValidator(func(s *openapi3.Schema, param any) error {
			n, err := toUint(param)
			s.MaxItems = &n
			return err
		}),
	}
}

func requiredValidator(_ any, message string) (Validator, error) {
	if message == "" {
		message = MessageRequired
	}
	return func(value any) error {
		if isEmpty(value) {
			return &ValidationError{Message: message}
		}
		return nil
	}, nil
}

// constraintValidator compiles a declarative constraint into an OpenAPI
// schema and checks converted values against it with VisitJSON.
func constraintValidator(apply func(*openapi3.Schema, any) error) ValidatorFactory {
	return func(param any, message string) (Validator, error) {
		schema := openapi3.NewSchema()
		if err := apply(schema, param); err != nil {
			return nil, err
		}
		return func(value any) error {
			if value == nil {
				return nil
			}
			err := schema.VisitJSON(jsonValue(value))
			if err == nil {
				return nil
			}
			if message != "" {
				return &ValidationError{Message: message}
			}
			var schemaErr *openapi3.SchemaError
			if errors.As(err, &schemaErr) && schemaErr.Reason != "" {
				return &ValidationError{Message: capitalize(schemaErr.Reason)}
			}
			return &ValidationError{Message: err.Error()}
		}, nil
	}
}

// jsonValue maps Go values onto the shapes VisitJSON understands.
func jsonValue(value any) any {
	if f, ok := toFloat(value); ok {
		return f
	}
	switch v := value.(type) {
	case nil, string, bool, []any, map[string]any:
		return v
	case time.Time:
		return v.Format(DateLayout)
	case Context:
		return map[string]any(v)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = jsonValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = jsonValue(iter.Value().Interface())
		}
		return out
	}
	return stringify(value)
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func toUint(param any) (uint64, error) {
	f, ok := toFloat(param)
	if !ok || f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("expected a non-negative whole number, got %v", param)
	}
	return uint64(f), nil
}

func capitalize(text string) string {
	if text == "" {
		return text
	}
	return strings.ToUpper(text[:1]) + text[1:]
}

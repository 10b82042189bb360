package widgets

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoOptions is returned when a select widget resolves to an empty
	// option set.
	ErrNoOptions = errors.New("widgets: there are no options defined")

	// ErrUnknownWidget indicates a widget type with no registered factory.
	ErrUnknownWidget = errors.New("widgets: unknown widget type")

	// ErrUnknownConverter indicates a converter name with no registration.
	ErrUnknownConverter = errors.New("widgets: unknown converter")

	// ErrUnknownValidator indicates a validator type with no registration.
	ErrUnknownValidator = errors.New("widgets: unknown validator")

	// ErrDuplicateName indicates two widgets of one form share a name.
	ErrDuplicateName = errors.New("widgets: duplicate widget name")

	// ErrMissingName indicates a widget configuration without a name.
	ErrMissingName = errors.New("widgets: widget name is required")
)

// MessageRequired is reported for required fields left empty.
const MessageRequired = "This field is required"

// ValidationError is a field-level failure. It is always recovered by the
// Composite and reported through Errors, never returned to callers.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Invalid builds a ValidationError for use by converters and validators.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a field-level failure.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// ItemErrors carries per-item failures for array widgets. Items has one entry
// per submitted item; clean items are nil.
type ItemErrors struct {
	Field string
	Items []Errors
}

func (e *ItemErrors) Error() string {
	if e == nil {
		return ""
	}
	var failing []string
	for idx, item := range e.Items {
		if len(item) > 0 {
			failing = append(failing, fmt.Sprint(idx))
		}
	}
	return fmt.Sprintf("invalid items: %s", strings.Join(failing, ", "))
}

// asValidationError normalises any converter or validator failure into a
// field-level error carrying the original message.
func asValidationError(field string, err error) error {
	var itemErr *ItemErrors
	if errors.As(err, &itemErr) {
		return itemErr
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		if verr.Field == "" {
			return &ValidationError{Field: field, Message: verr.Message}
		}
		return verr
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

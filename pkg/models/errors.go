package models

import "errors"

var (
	// ErrModelNotFound indicates an unknown model name or a model folder
	// without a descriptor.
	ErrModelNotFound = errors.New("models: model not found")

	// ErrModelExists indicates an import onto an existing model without
	// overwrite.
	ErrModelExists = errors.New("models: model already exists")

	// ErrInvalidName indicates a model name that is empty or would escape
	// the models root.
	ErrInvalidName = errors.New("models: invalid model name")

	// ErrInvalidDescriptor indicates a descriptor that could not be parsed.
	ErrInvalidDescriptor = errors.New("models: invalid descriptor")
)

// IsNotFound reports whether err is ErrModelNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}

// IsExists reports whether err is ErrModelExists.
func IsExists(err error) bool {
	return errors.Is(err, ErrModelExists)
}

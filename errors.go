package reportwriter

import (
	"errors"

	"github.com/goliatone/go-reportwriter/pkg/assets"
	"github.com/goliatone/go-reportwriter/pkg/models"
)

var (
	// ErrNotInitialized indicates an asset operation on a Writer created
	// without a temp root or session id.
	ErrNotInitialized = assets.ErrNotInitialized

	// ErrModelNotFound indicates an unknown model name.
	ErrModelNotFound = models.ErrModelNotFound

	// ErrModelExists indicates an import onto an existing model without
	// overwrite.
	ErrModelExists = models.ErrModelExists

	// ErrAssetExists indicates a save onto an existing asset without
	// overwrite.
	ErrAssetExists = assets.ErrAssetExists
)

// IsNotFound reports whether err is ErrModelNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}

// IsNotInitialized reports whether err is ErrNotInitialized.
func IsNotInitialized(err error) bool {
	return errors.Is(err, ErrNotInitialized)
}

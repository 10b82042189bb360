package assets

import "errors"

var (
	// ErrNotInitialized indicates the store was used without a temp root or
	// session id.
	ErrNotInitialized = errors.New("assets: temp root or session id not configured")

	// ErrAssetExists indicates a save without overwrite onto an existing file.
	ErrAssetExists = errors.New("assets: asset already exists")

	// ErrInvalidName indicates a session, field or file name that would escape
	// its bucket.
	ErrInvalidName = errors.New("assets: invalid name")
)

// IsNotInitialized reports whether err is ErrNotInitialized.
func IsNotInitialized(err error) bool {
	return errors.Is(err, ErrNotInitialized)
}

// IsExists reports whether err is ErrAssetExists.
func IsExists(err error) bool {
	return errors.Is(err, ErrAssetExists)
}

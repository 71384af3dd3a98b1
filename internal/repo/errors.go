package repo

import "errors"

var (
	// ErrMissingMongoURI means the connection string was never configured.
	// It is fatal to the caller; retrying without fixing the environment
	// cannot help.
	ErrMissingMongoURI = errors.New("MONGO_URI is missing")

	// ErrNotFound covers any referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned both when an event does not exist and
	// when it belongs to someone else, so a caller cannot probe which
	// ids exist.
	ErrUnauthorized = errors.New("unauthorized or event not found")

	// ErrUpdateFailed means a write matched no document.
	ErrUpdateFailed = errors.New("update failed")

	// ErrCategoryExists is the unique-name index surfacing on create.
	ErrCategoryExists = errors.New("category already exists")
)

package store

import "errors"

// Sentinel errors returned by Entity operations. Callers match them with
// errors.Is; index conflicts wrap ErrAlreadyExists with the index name.
var (
	ErrNotFound      = errors.New("store: record not found")
	ErrAlreadyExists = errors.New("store: record already exists")
)

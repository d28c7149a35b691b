package storage

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateFingerprint indicates a document with the same content
	// fingerprint already exists in the ledger.
	ErrDuplicateFingerprint = errors.New("duplicate fingerprint")

	// ErrBackendRequired is returned when a backend is not provided.
	ErrBackendRequired = errors.New("backend required")
)

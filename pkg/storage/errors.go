package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when a create would overwrite an existing
// record with the same id.
var ErrAlreadyExists = errors.New("record already exists")

// ErrStatusConflict is returned when a compare-and-swap transition fails
// because the record was no longer in the expected prior state. This is
// the storage-level guard behind the at-most-one-accepted-request
// invariant.
var ErrStatusConflict = errors.New("status transition conflict")

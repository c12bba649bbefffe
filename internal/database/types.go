package database

import "errors"

// ErrDuplicateID is returned by IdentityWriter.Insert when the ID already exists.
var ErrDuplicateID = errors.New("identity id already exists")

// ErrDimensionConflict is returned when an inserted descriptor length differs
// from the descriptors already stored.
var ErrDimensionConflict = errors.New("descriptor dimension differs from stored identities")

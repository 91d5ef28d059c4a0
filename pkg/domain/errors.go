package domain

import "errors"

// ErrRecordNotFound is returned when a record ID cannot be found in the store.
var ErrRecordNotFound = errors.New("record not found")

// ErrRecordExists is returned when inserting a record whose ID is already taken.
var ErrRecordExists = errors.New("record already exists")

// ErrInvalidID is returned for empty or otherwise unusable record IDs.
var ErrInvalidID = errors.New("invalid record id")

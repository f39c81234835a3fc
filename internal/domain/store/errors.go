// Package store holds the error contract shared by every repository
// implementation.
package store

import crerr "github.com/cockroachdb/errors"

var (
	// ErrConflict is returned by Create when the natural key already exists.
	ErrConflict = crerr.New("natural key conflict")
	ErrNotFound = crerr.New("record not found")
)

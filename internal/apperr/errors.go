// Package apperr defines sentinel errors shared across Ansuz.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a diagram, scene, or overlay does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on checksum-guarded writes when the on-disk
	// content changed under the caller.
	ErrConflict = errors.New("conflict")
	// ErrInvalidSpec is returned when a diagram spec violates a structural
	// precondition (duplicate ids, missing required fields).
	ErrInvalidSpec = errors.New("invalid spec")
	// ErrUnsupportedLayout is returned by the text generator for layout types
	// it does not recognise. Fatal to that render call only.
	ErrUnsupportedLayout = errors.New("unsupported layout")
)

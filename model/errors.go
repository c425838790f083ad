package model

import "errors"

var (
	// ErrNotFound is returned when a model or submodel doesn't exist.
	ErrNotFound = errors.New("model: not found")

	// ErrParentNotFound is returned when a submodel is saved under a missing parent model.
	ErrParentNotFound = errors.New("model: parent model not found")
)

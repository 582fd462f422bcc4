package model

import "errors"

var (
	// ErrInvalidParameter reports a parameter outside its declared domain.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrDegenerateNormalization reports that the remaining entry mass fell to
	// or below the numerical floor before the final occasion.
	ErrDegenerateNormalization = errors.New("degenerate entry normalization")
	// ErrShapeMismatch reports inconsistent matrix or vector dimensions.
	ErrShapeMismatch = errors.New("shape mismatch")
)

package stitch

import "errors"

var (
	// ErrEmptySequence is returned when there are no tiles to compose.
	ErrEmptySequence = errors.New("empty tile sequence")

	// ErrWidthMismatch is returned when tiles of one sequence differ in width.
	ErrWidthMismatch = errors.New("tile width mismatch")

	// ErrInvalidOverlap is returned for a negative overlap or one taller
	// than the tiles it joins.
	ErrInvalidOverlap = errors.New("invalid overlap")

	// ErrOverlapDrift is returned in strict mode when a tile pair overlaps
	// by a different amount than the first pair.
	ErrOverlapDrift = errors.New("overlap drift")
)

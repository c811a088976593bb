package util

import "errors"

var (
	ErrInvalidPageSize     = errors.New("invalid page size")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrInvalidInitialPages = errors.New("initial pages must be positive")
	ErrMaxMapSizeExceeded  = errors.New("initial size exceeds maximum mapping size")
	ErrPageOutOfBounds     = errors.New("page out of bounds")
	ErrFileManagerNil      = errors.New("file manager is nil")
	ErrInvalidPoolSize     = errors.New("invalid pool size")
	ErrOutBoundOfFrame     = errors.New("frame idx out of bound")
	ErrNoFreeFrame         = errors.New("no free frames")
	ErrPageNotFound        = errors.New("page not found in buffer")
	ErrFrameNotAllocated   = errors.New("frame is not allocated")

	// sketch errors
	ErrInvalidSketchDimensions = errors.New("width and depth must be positive")
	ErrSketchShapeMismatch     = errors.New("sketches have incompatible shape or seeds")
	ErrInvalidTopK             = errors.New("k must be non-negative")
)

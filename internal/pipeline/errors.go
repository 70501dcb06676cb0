package pipeline

import "errors"

var (
	// ErrDataFormat: input unreadable, of an unsupported kind, or missing required columns.
	ErrDataFormat = errors.New("data format error")
	// ErrEmptySelection: no subject codes were selected.
	ErrEmptySelection = errors.New("no subjects selected")
	// ErrFilesystem: an output directory or file could not be written.
	ErrFilesystem = errors.New("filesystem error")
)

package dataset

import "errors"

var (
	// ErrFortranOrder is returned for column-major arrays, which the
	// loader does not support.
	ErrFortranOrder = errors.New("dataset: fortran-ordered array")

	// ErrUnsupportedDType is returned when an array's element type has
	// no Go representation here (big-endian, strings, objects).
	ErrUnsupportedDType = errors.New("dataset: unsupported dtype")

	// ErrNoSuchArray is returned when an archive lacks a requested key.
	ErrNoSuchArray = errors.New("dataset: no such array")

	// ErrNotImage is returned when frames of an array cannot be
	// interpreted as images.
	ErrNotImage = errors.New("dataset: array is not image-shaped")

	// ErrNoEpisodes is returned when a dataset root contains no
	// episode directories.
	ErrNoEpisodes = errors.New("dataset: no episodes found")
)

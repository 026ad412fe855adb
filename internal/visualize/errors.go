package visualize

import "errors"

// Argument and precondition errors, all raised before any I/O.
var (
	// ErrInvalidMode indicates a mode other than "local" or "distant".
	ErrInvalidMode = errors.New("visualize: mode must be local or distant")

	// ErrNoOutputDir indicates save was requested without a destination;
	// set an output directory with --output-dir.
	ErrNoOutputDir = errors.New("visualize: save requested, set an output directory with --output-dir")

	// ErrNoPath indicates a missing dataset root path.
	ErrNoPath = errors.New("visualize: dataset path is required")

	// ErrBadEpisode indicates a negative episode index.
	ErrBadEpisode = errors.New("visualize: episode index must be non-negative")

	// ErrBadPort indicates a port outside 0..65535. Port 0 binds an
	// ephemeral port.
	ErrBadPort = errors.New("visualize: port out of range")

	// ErrBadStride indicates a downsample stride below 1.
	ErrBadStride = errors.New("visualize: downsample stride must be at least 1")

	// ErrBadActionDt indicates a non-positive action timestep.
	ErrBadActionDt = errors.New("visualize: action dt must be positive")
)

// Package viewer provides terminal playback for recorded episode sessions.
//
// The package implements a player TUI using the Bubble Tea framework:
//
//   - [Model]: playback state machine driven by a fixed-rate tick
//   - [Canvas]: Braille dot matrix rendering camera frames and traces
//   - [Run]: one-call entry point used by local mode
//
// # Key Bindings
//
//	Space    - Pause/Resume playback
//	←/→      - Step one frame
//	[ ]      - Jump 10 frames
//	Home/End - Seek to first/last frame
//	Tab      - Cycle camera feeds
//	S        - Cycle scalar series
//	?        - Show help overlay
//
// # Layout
//
// The left panel shows the selected camera feed, or a braille trace of
// the selected scalar series for episodes without image channels. The
// right panel tracks frame index, timestamp, and an inline chart of the
// selected series up to the play head.
package viewer

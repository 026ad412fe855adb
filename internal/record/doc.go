// Package record models the time-indexed stream a visualized episode
// produces and the recording file that persists it.
//
// The core types are:
//
//   - [Record]: one emitted datum (scalar or image) with its time axes
//   - [Image]: raw interleaved pixels with spatial downsampling
//   - [Session]: a named recording context that stamps records with the
//     ambient frame/timestamp axes and fans them out to attached sinks
//   - [Sink]: anything consuming records as they are emitted
//
// Two time axes are attached to every record: a frame index that the
// caller advances explicitly, and an optional timestamp that stays at its
// last set value until set again. A record emitted before the timestamp
// axis was ever set carries no timestamp.
//
// # Recording files
//
// [WriteFile] persists a session to a .rrd container: a CBOR stream
// (header item, then one item per record) compressed as a single block
// and guarded by a BLAKE3 checksum. [ReadFile] restores it.
package record

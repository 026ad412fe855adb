// Package visualize streams one recorded robot episode into a record
// session under one of two delivery modes.
//
// The pipeline is load-transform-emit with no retries:
//
//   - [Options]: typed run parameters, validated up front before any
//     file or network access
//   - [Run]: loads the episode's action and observation archives and
//     emits scalar and image records onto a [record.Session]
//   - [Outcome]: the populated session plus the written file path when
//     the run saved a recording
//
// In local mode the session either stays in memory for an interactive
// viewer or is committed to a .rrd file. In distant mode the records
// are additionally broadcast over a websocket and Run blocks until the
// context is canceled.
package visualize

// Package serve exposes a record session to remote viewers.
//
// A [Server] listens on two ports: a web port with a small HTML index
// and a JSON /status endpoint, and a websocket port streaming records.
// Each connecting client receives a hello frame naming the session and
// the backlog size, then the full backlog, then live records as they
// are emitted. All frames are CBOR-encoded binary messages.
//
// The server implements [record.Sink]; attach it to a session and every
// logged record is broadcast. Emit never blocks: a client that cannot
// keep up is dropped.
package serve

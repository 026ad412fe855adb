package serve

// helloFrame is the first message on every websocket connection. It
// names the session and tells the client how many backlog records will
// arrive before the live stream begins.
type helloFrame struct {
	App     string `cbor:"app"`
	Backlog int    `cbor:"backlog"`
}

package record

import "fmt"

// Kind discriminates the payload carried by a Record.
type Kind uint8

const (
	KindScalar Kind = iota
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindImage:
		return "image"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Record is one emitted datum. Entity is the logical path the datum is
// logged under (e.g. "action/0" or "camera_front"). Frame is always set;
// Time is nil until the session's timestamp axis has been set once.
type Record struct {
	Entity string   `cbor:"e"`
	Frame  int64    `cbor:"f"`
	Time   *float64 `cbor:"t,omitempty"`
	Kind   Kind     `cbor:"k"`
	Scalar float64  `cbor:"v,omitempty"`
	Image  *Image   `cbor:"img,omitempty"`
}

// Sink consumes records as a session emits them. Emit is called on the
// emitting goroutine and must not block on slow consumers.
type Sink interface {
	Emit(Record)
}

package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"
)

// Recording file errors.
var (
	// ErrBadMagic indicates the file does not start with the recording magic.
	ErrBadMagic = errors.New("record: not a lerobot recording file")

	// ErrBadVersion indicates a recording written by an incompatible version.
	ErrBadVersion = errors.New("record: unsupported recording version")

	// ErrBadChecksum indicates the payload does not match its stored digest.
	ErrBadChecksum = errors.New("record: recording checksum mismatch")

	// ErrUnknownCompression indicates a compression tag this build cannot read.
	ErrUnknownCompression = errors.New("record: unknown compression tag")

	// ErrTruncated indicates the file ends before its declared payload does.
	ErrTruncated = errors.New("record: truncated recording file")
)

// Compression identifies the algorithm applied to the recording payload.
// Tag values are part of the file format.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression maps a config/flag value to its tag.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("record: unknown compression %q", name)
	}
}

// File layout:
//
//	magic   "LRRD"         4 bytes
//	version 0x01           1 byte
//	tag     Compression    1 byte
//	rawLen  uint64 BE      8 bytes  (uncompressed payload size)
//	payLen  uint64 BE      8 bytes  (stored payload size)
//	payload                payLen bytes
//	digest  BLAKE3-256     32 bytes (over the stored payload)
//
// The payload is a CBOR stream: one fileHeader item followed by
// fileHeader.Records record items.
var fileMagic = [4]byte{'L', 'R', 'R', 'D'}

const fileVersion = 1

type fileHeader struct {
	App     string `cbor:"app"`
	Created int64  `cbor:"created"`
	Records int    `cbor:"records"`
}

// Shared zstd coder pair, reused across files. Both are safe for
// concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("record: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("record: zstd decoder initialization failed: " + err.Error())
	}
}

// encMode encodes CBOR with Core Deterministic Encoding so identical
// sessions produce identical files.
var encMode cbor.EncMode

// decMode accepts standard CBOR and ignores unknown fields.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("record: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("record: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v with the recording codec. The websocket stream uses
// this so wire frames and file payloads stay byte-compatible.
func Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

// Unmarshal decodes recording-codec CBOR into v.
func Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }

// WriteFile persists the session to path. The requested compression is
// applied to the whole CBOR payload; if it does not shrink the payload
// the file is written uncompressed (tag none), which the reader handles
// transparently.
func WriteFile(path string, s *Session, c Compression) error {
	records := s.Records()

	var raw bytes.Buffer
	enc := encMode.NewEncoder(&raw)
	header := fileHeader{App: s.App(), Created: time.Now().Unix(), Records: len(records)}
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("record: encode header: %w", err)
	}
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return fmt.Errorf("record: encode record %d: %w", i, err)
		}
	}

	payload, tag, err := compress(raw.Bytes(), c)
	if err != nil {
		return err
	}
	digest := blake3.Sum256(payload)

	var out bytes.Buffer
	out.Write(fileMagic[:])
	out.WriteByte(fileVersion)
	out.WriteByte(byte(tag))
	var lens [16]byte
	binary.BigEndian.PutUint64(lens[0:8], uint64(raw.Len()))
	binary.BigEndian.PutUint64(lens[8:16], uint64(len(payload)))
	out.Write(lens[:])
	out.Write(payload)
	out.Write(digest[:])

	return os.WriteFile(path, out.Bytes(), 0644)
}

// ReadFile loads a recording written by WriteFile, verifying the magic,
// version, checksum and sizes before decoding any records.
func ReadFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 4+1+1+16 {
		return nil, ErrTruncated
	}
	if !bytes.Equal(data[:4], fileMagic[:]) {
		return nil, ErrBadMagic
	}
	if data[4] != fileVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, data[4])
	}
	tag := Compression(data[5])
	rawLen := binary.BigEndian.Uint64(data[6:14])
	payLen := binary.BigEndian.Uint64(data[14:22])

	rest := data[22:]
	if uint64(len(rest)) != payLen+32 {
		return nil, ErrTruncated
	}
	payload := rest[:payLen]
	var digest [32]byte
	copy(digest[:], rest[payLen:])
	if blake3.Sum256(payload) != digest {
		return nil, ErrBadChecksum
	}

	raw, err := decompress(payload, tag, int(rawLen))
	if err != nil {
		return nil, err
	}

	dec := decMode.NewDecoder(bytes.NewReader(raw))
	var header fileHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("record: decode header: %w", err)
	}
	s := NewSession(header.App)
	for i := 0; i < header.Records; i++ {
		var r Record
		if err := dec.Decode(&r); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrTruncated
			}
			return nil, fmt.Errorf("record: decode record %d: %w", i, err)
		}
		s.restore(r)
	}
	return s, nil
}

// restore appends an already-stamped record without consulting the
// ambient axes. Used when loading a recording from disk.
func (s *Session) restore(r Record) {
	s.mu.Lock()
	if _, ok := s.seen[r.Entity]; !ok {
		s.seen[r.Entity] = len(s.entities)
		s.entities = append(s.entities, r.Entity)
	}
	s.records = append(s.records, r)
	s.mu.Unlock()
}

func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	switch c {
	case CompressionNone:
		return raw, CompressionNone, nil

	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(raw))
		dst := make([]byte, bound)
		written, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("record: lz4 compress: %w", err)
		}
		// CompressBlock reports 0 for incompressible input.
		if written == 0 || written >= len(raw) {
			return raw, CompressionNone, nil
		}
		return dst[:written], CompressionLZ4, nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(raw, nil)
		if len(compressed) >= len(raw) {
			return raw, CompressionNone, nil
		}
		return compressed, CompressionZstd, nil

	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}

func decompress(payload []byte, c Compression, rawLen int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(payload) != rawLen {
			return nil, fmt.Errorf("record: uncompressed payload is %d bytes, header says %d", len(payload), rawLen)
		}
		return payload, nil

	case CompressionLZ4:
		dst := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, fmt.Errorf("record: lz4 decompress: %w", err)
		}
		if n != rawLen {
			return nil, fmt.Errorf("record: lz4 decompress: got %d bytes, expected %d", n, rawLen)
		}
		return dst, nil

	case CompressionZstd:
		dst, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("record: zstd decompress: %w", err)
		}
		if len(dst) != rawLen {
			return nil, fmt.Errorf("record: zstd decompress: got %d bytes, expected %d", len(dst), rawLen)
		}
		return dst, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}

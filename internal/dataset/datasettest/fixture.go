// Package datasettest builds synthetic episode archives for tests. The
// .npy bytes are produced exactly the way numpy writes them so loader
// tests run against the real on-disk format, not a mock.
package datasettest

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Entry is one named array destined for an .npz archive.
type Entry struct {
	Key string
	Raw []byte
}

// NPYBytes builds a version 1.0 .npy file: magic, version, little-endian
// header length, the canonical header dict padded to a 64-byte boundary,
// then raw little-endian data.
func NPYBytes(tb testing.TB, descr string, shape []int, fortran bool, data any) []byte {
	tb.Helper()

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	shapeStr := "(" + strings.Join(dims, ", ") + ")"
	if len(shape) == 1 {
		shapeStr = fmt.Sprintf("(%d,)", shape[0])
	}
	order := "False"
	if fortran {
		order = "True"
	}

	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }", descr, order, shapeStr)
	pad := 64 - (10+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.Write([]byte("\x93NUMPY"))
	buf.Write([]byte{1, 0})
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(header))); err != nil {
		tb.Fatalf("header length: %v", err)
	}
	buf.WriteString(header)
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		tb.Fatalf("data: %v", err)
	}
	return buf.Bytes()
}

// WriteNPZ writes entries into a zip archive at path, in order.
func WriteNPZ(tb testing.TB, path string, entries ...Entry) {
	tb.Helper()

	file, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	for _, e := range entries {
		w, err := zw.Create(e.Key + ".npy")
		if err != nil {
			tb.Fatalf("zip entry %s: %v", e.Key, err)
		}
		if _, err := w.Write(e.Raw); err != nil {
			tb.Fatalf("zip write %s: %v", e.Key, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("zip close: %v", err)
	}
}

// WriteEpisode lays out <root>/diffusion_spartan/episode_<index>/processed
// with an actions and an observations archive.
func WriteEpisode(tb testing.TB, root string, index int, actions, observations []Entry) {
	tb.Helper()

	dir := filepath.Join(root, "diffusion_spartan", fmt.Sprintf("episode_%d", index), "processed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		tb.Fatalf("mkdir %s: %v", dir, err)
	}
	WriteNPZ(tb, filepath.Join(dir, "actions.npz"), actions...)
	WriteNPZ(tb, filepath.Join(dir, "observations.npz"), observations...)
}

// Ramp returns n float64 values 0, 1, 2, ...
func Ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// RampBytes returns n bytes cycling 0..250.
func RampBytes(n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = uint8(i % 251)
	}
	return out
}

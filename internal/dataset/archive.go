package dataset

import (
	"archive/zip"
	"fmt"
	"strings"

	"github.com/sbinet/npyio"

	"github.com/RussTedrake/lerobot/internal/record"
)

// Array is one named numpy array loaded from an archive. Numeric types
// are widened to float64 on load, except uint8 data which stays raw in
// Bytes so image frames can be sliced without conversion.
type Array struct {
	Name  string
	DType string
	Shape []int

	Floats []float64 // all numeric dtypes except u1
	Bytes  []uint8   // u1 only
}

// Len reports the total element count.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	if len(a.Shape) == 0 {
		return 1
	}
	return n
}

// Frames reports the size of the leading axis, the per-step count for
// time-series arrays. Zero-dimensional arrays have no frames.
func (a *Array) Frames() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

// Dims reports the per-frame vector width of a 2-D array.
func (a *Array) Dims() int {
	if len(a.Shape) != 2 {
		return 0
	}
	return a.Shape[1]
}

// At returns element (i, j) of a 2-D numeric array.
func (a *Array) At(i, j int) float64 {
	if len(a.Shape) != 2 {
		panic(fmt.Sprintf("dataset: At on %d-d array %q", len(a.Shape), a.Name))
	}
	idx := i*a.Shape[1] + j
	if a.Floats != nil {
		return a.Floats[idx]
	}
	return float64(a.Bytes[idx])
}

// Vector returns row i of a 2-D numeric array as a fresh slice.
func (a *Array) Vector(i int) []float64 {
	w := a.Dims()
	out := make([]float64, w)
	for j := 0; j < w; j++ {
		out[j] = a.At(i, j)
	}
	return out
}

// ImageAt interprets frame i of a 3-D (T, H, W) or 4-D (T, H, W, C)
// array as an image. Gray frames come back with one channel. Float
// data is clamped into the 0..255 byte range.
func (a *Array) ImageAt(i int) (record.Image, error) {
	var h, w, c int
	switch len(a.Shape) {
	case 3:
		h, w, c = a.Shape[1], a.Shape[2], 1
	case 4:
		h, w, c = a.Shape[1], a.Shape[2], a.Shape[3]
	default:
		return record.Image{}, fmt.Errorf("%w: %q has shape %v", ErrNotImage, a.Name, a.Shape)
	}
	if h < 1 || w < 1 || c < 1 || c > 4 {
		return record.Image{}, fmt.Errorf("%w: %q has shape %v", ErrNotImage, a.Name, a.Shape)
	}
	if i < 0 || i >= a.Shape[0] {
		return record.Image{}, fmt.Errorf("dataset: frame %d out of range for %q (%d frames)", i, a.Name, a.Shape[0])
	}

	n := h * w * c
	pix := make([]uint8, n)
	if a.Bytes != nil {
		copy(pix, a.Bytes[i*n:(i+1)*n])
	} else {
		for k, v := range a.Floats[i*n : (i+1)*n] {
			switch {
			case v <= 0:
				pix[k] = 0
			case v >= 255:
				pix[k] = 255
			default:
				pix[k] = uint8(v)
			}
		}
	}
	return record.Image{Height: h, Width: w, Channels: c, Pix: pix}, nil
}

// Archive holds the arrays of one .npz file, in entry order.
type Archive struct {
	arrays []*Array
	byName map[string]*Array
}

// OpenArchive loads every array of an .npz file into memory. Keys are
// the zip entry names without their .npy suffix, in archive order.
func OpenArchive(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer zr.Close()

	arch := &Archive{byName: make(map[string]*Array)}
	for _, f := range zr.File {
		arr, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("dataset: %s: %w", path, err)
		}
		arch.arrays = append(arch.arrays, arr)
		arch.byName[arr.Name] = arr
	}
	return arch, nil
}

// Keys returns the array names in archive order.
func (a *Archive) Keys() []string {
	keys := make([]string, len(a.arrays))
	for i, arr := range a.arrays {
		keys[i] = arr.Name
	}
	return keys
}

// Get looks an array up by key.
func (a *Archive) Get(name string) (*Array, error) {
	arr, ok := a.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchArray, name)
	}
	return arr, nil
}

// Arrays returns the arrays in archive order.
func (a *Archive) Arrays() []*Array { return a.arrays }

func readEntry(f *zip.File) (*Array, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	r, err := npyio.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", f.Name, err)
	}
	if r.Header.Descr.Fortran {
		return nil, fmt.Errorf("%w: entry %s", ErrFortranOrder, f.Name)
	}

	arr := &Array{
		Name:  strings.TrimSuffix(f.Name, ".npy"),
		DType: r.Header.Descr.Type,
		Shape: append([]int(nil), r.Header.Descr.Shape...),
	}
	n := arr.Len()

	switch normalizeDType(r.Header.Descr.Type) {
	case "f8":
		arr.Floats = make([]float64, n)
		err = r.Read(&arr.Floats)
	case "f4":
		data := make([]float32, n)
		if err = r.Read(&data); err == nil {
			arr.Floats = widen(data)
		}
	case "u1":
		arr.Bytes = make([]uint8, n)
		err = r.Read(&arr.Bytes)
	case "i1":
		data := make([]int8, n)
		if err = r.Read(&data); err == nil {
			arr.Floats = widen(data)
		}
	case "i2":
		data := make([]int16, n)
		if err = r.Read(&data); err == nil {
			arr.Floats = widen(data)
		}
	case "i4":
		data := make([]int32, n)
		if err = r.Read(&data); err == nil {
			arr.Floats = widen(data)
		}
	case "i8":
		data := make([]int64, n)
		if err = r.Read(&data); err == nil {
			arr.Floats = widen(data)
		}
	case "u2":
		data := make([]uint16, n)
		if err = r.Read(&data); err == nil {
			arr.Floats = widen(data)
		}
	case "u4":
		data := make([]uint32, n)
		if err = r.Read(&data); err == nil {
			arr.Floats = widen(data)
		}
	case "u8":
		data := make([]uint64, n)
		if err = r.Read(&data); err == nil {
			arr.Floats = widen(data)
		}
	default:
		return nil, fmt.Errorf("%w: entry %s has dtype %q", ErrUnsupportedDType, f.Name, r.Header.Descr.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("entry %s: read: %w", f.Name, err)
	}
	return arr, nil
}

// normalizeDType strips the byte-order prefix from little-endian and
// order-free descriptors. Big-endian data is left as-is so the dtype
// switch rejects it.
func normalizeDType(descr string) string {
	if len(descr) > 0 && (descr[0] == '<' || descr[0] == '|' || descr[0] == '=') {
		return descr[1:]
	}
	return descr
}

func widen[T int8 | int16 | int32 | int64 | uint16 | uint32 | uint64 | float32](data []T) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

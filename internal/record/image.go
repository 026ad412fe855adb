package record

// Image is a raw interleaved frame in row-major (height, width, channel)
// layout, the shape numpy image arrays use. Channels is 1 for grayscale
// and 3 for RGB; other channel counts are carried through untouched.
type Image struct {
	Height   int    `cbor:"h"`
	Width    int    `cbor:"w"`
	Channels int    `cbor:"c"`
	Pix      []uint8 `cbor:"p"`
}

// Downsample keeps every stride-th row and column, so a HxW frame becomes
// ceil(H/stride) x ceil(W/stride). Stride 1 returns the receiver
// unchanged. The returned image owns its pixels.
func (im Image) Downsample(stride int) Image {
	if stride <= 1 {
		return im
	}
	outH := (im.Height + stride - 1) / stride
	outW := (im.Width + stride - 1) / stride
	out := Image{
		Height:   outH,
		Width:    outW,
		Channels: im.Channels,
		Pix:      make([]uint8, outH*outW*im.Channels),
	}
	for y := 0; y < outH; y++ {
		srcRow := y * stride * im.Width * im.Channels
		dstRow := y * outW * im.Channels
		for x := 0; x < outW; x++ {
			src := srcRow + x*stride*im.Channels
			dst := dstRow + x*im.Channels
			copy(out.Pix[dst:dst+im.Channels], im.Pix[src:src+im.Channels])
		}
	}
	return out
}

// Luma returns the perceived brightness of the pixel at (x, y) in 0..255.
// Grayscale images return the single channel; multi-channel images use
// the Rec. 601 weights on the first three channels.
func (im Image) Luma(x, y int) uint8 {
	if x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		return 0
	}
	i := (y*im.Width + x) * im.Channels
	if im.Channels < 3 {
		return im.Pix[i]
	}
	r := float64(im.Pix[i])
	g := float64(im.Pix[i+1])
	b := float64(im.Pix[i+2])
	return uint8(0.299*r + 0.587*g + 0.114*b)
}

// Valid reports whether the pixel buffer matches the declared dimensions.
func (im Image) Valid() bool {
	return im.Height >= 0 && im.Width >= 0 && im.Channels >= 1 &&
		len(im.Pix) == im.Height*im.Width*im.Channels
}

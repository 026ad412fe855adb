package viewer

import (
	"math"
	"strings"

	"github.com/RussTedrake/lerobot/internal/record"
)

// Braille block 0x2800: each cell carries a 2x4 dot patch with these
// bit offsets.
//
//	0x01 0x08
//	0x02 0x10
//	0x04 0x20
//	0x40 0x80
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBase = 0x2800

// lumaThreshold splits pixels into lit and unlit dots. Midpoint of the
// 0..255 luminance range.
const lumaThreshold = 128

// Canvas is a braille dot matrix. A canvas of cols x rows character
// cells exposes a (cols*2) x (rows*4) dot grid. Braille dots are close
// to square in common terminal fonts, so images keep their aspect
// ratio without cell-geometry correction.
type Canvas struct {
	cols, rows int
	cells      []rune
}

func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{cols: cols, rows: rows, cells: make([]rune, cols*rows)}
	c.Clear()
	return c
}

// DotWidth reports the horizontal dot resolution.
func (c *Canvas) DotWidth() int { return c.cols * 2 }

// DotHeight reports the vertical dot resolution.
func (c *Canvas) DotHeight() int { return c.rows * 4 }

// Set lights the dot at (x, y) in dot coordinates. Out-of-range
// coordinates are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.cols*2 || y >= c.rows*4 {
		return
	}
	c.cells[(y/4)*c.cols+x/2] |= dotBits[y%4][x%2]
}

// Lit reports whether the dot at (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || x >= c.cols*2 || y >= c.rows*4 {
		return false
	}
	return c.cells[(y/4)*c.cols+x/2]&dotBits[y%4][x%2] != 0
}

// Clear unsets every dot.
func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = brailleBase
	}
}

// DrawLine lights the dots on the segment from (x0, y0) to (x1, y1)
// using Bresenham stepping.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawImage clears the canvas and renders im aspect-fit and centered,
// lighting dots whose nearest source pixel reaches lumaThreshold.
func (c *Canvas) DrawImage(im record.Image) {
	c.Clear()
	if !im.Valid() || im.Width == 0 || im.Height == 0 {
		return
	}
	dw, dh := c.DotWidth(), c.DotHeight()
	scale := math.Min(float64(dw)/float64(im.Width), float64(dh)/float64(im.Height))
	outW, outH := int(float64(im.Width)*scale), int(float64(im.Height)*scale)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	offX, offY := (dw-outW)/2, (dh-outH)/2
	for y := 0; y < outH; y++ {
		sy := y * im.Height / outH
		for x := 0; x < outW; x++ {
			sx := x * im.Width / outW
			if im.Luma(sx, sy) >= lumaThreshold {
				c.Set(offX+x, offY+y)
			}
		}
	}
}

// DrawSeries clears the canvas and plots vals left to right as a
// connected polyline autoscaled to the value range. NaN values break
// the line.
func (c *Canvas) DrawSeries(vals []float64) {
	c.Clear()
	if len(vals) == 0 {
		return
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo > hi {
		return
	}
	dw, dh := c.DotWidth(), c.DotHeight()
	span := hi - lo
	px, py := -1, -1
	for i, v := range vals {
		if math.IsNaN(v) {
			px, py = -1, -1
			continue
		}
		x := 0
		if len(vals) > 1 {
			x = i * (dw - 1) / (len(vals) - 1)
		}
		y := dh / 2
		if span > 0 {
			y = dh - 1 - int((v-lo)/span*float64(dh-1))
		}
		if px >= 0 {
			c.DrawLine(px, py, x, y)
		} else {
			c.Set(x, y)
		}
		px, py = x, y
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for r := 0; r < c.rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(c.cells[r*c.cols : (r+1)*c.cols]))
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

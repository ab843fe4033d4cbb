package assets

import (
	"image"
	"image/color"
)

// AlphaMask is the only raster capability the simulation consumes: pixel
// dimensions plus an opacity query. Color is never read.
type AlphaMask interface {
	Width() int
	Height() int
	// AlphaAt returns 0..255 for in-bounds pixels. Callers bounds-check first.
	AlphaAt(x, y int) uint8
}

// Mask is a dense row-major alpha plane.
type Mask struct {
	width  int
	height int
	alpha  []uint8
}

var _ AlphaMask = (*Mask)(nil)

// NewMask builds a mask from a row-major alpha slice. A nil or short slice is
// padded with transparent pixels.
func NewMask(width, height int, alpha []uint8) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	plane := make([]uint8, width*height)
	copy(plane, alpha)
	return &Mask{width: width, height: height, alpha: plane}
}

// FilledMask returns a width x height mask with every pixel set to a.
func FilledMask(width, height int, a uint8) *Mask {
	m := NewMask(width, height, nil)
	if a != 0 {
		for i := range m.alpha {
			m.alpha[i] = a
		}
	}
	return m
}

// FromImage copies the alpha channel of img.
func FromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy(), nil)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			a := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA).A
			m.alpha[y*m.width+x] = a
		}
	}
	return m
}

func (m *Mask) Width() int  { return m.width }
func (m *Mask) Height() int { return m.height }

func (m *Mask) AlphaAt(x, y int) uint8 {
	return m.alpha[y*m.width+x]
}

// Set writes a single pixel; out-of-range writes are ignored.
func (m *Mask) Set(x, y int, a uint8) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	m.alpha[y*m.width+x] = a
}

// FillRect sets every pixel of [x0,x1) x [y0,y1) to a, clipped to the mask.
func (m *Mask) FillRect(x0, y0, x1, y1 int, a uint8) {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, m.width), min(y1, m.height)
	for y := y0; y < y1; y++ {
		row := m.alpha[y*m.width : (y+1)*m.width]
		for x := x0; x < x1; x++ {
			row[x] = a
		}
	}
}

// Pix exposes the underlying plane; used for fingerprinting.
func (m *Mask) Pix() []uint8 { return m.alpha }

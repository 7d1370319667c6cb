package tile

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Format selects the encoding of a written raster.
type Format int

// Output format constants
const (
	FormatPNG Format = iota
	FormatBMP
)

// String returns the flag spelling of the format.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatBMP:
		return "bmp"
	default:
		return "unknown"
	}
}

// ContentType returns the MIME type of the encoded format.
func (f Format) ContentType() string {
	if f == FormatBMP {
		return "image/bmp"
	}
	return "image/png"
}

// Tile is one captured raster of the scrolling viewport. Its pixels are
// opaque and its bounds start at the origin. A Tile is never modified after
// construction.
type Tile struct {
	img *image.RGBA
}

// New copies img into a new Tile, flattening any transparency onto black.
func New(img image.Image) *Tile {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Copy(dst, image.Point{}, img, b, draw.Over, nil)
	return &Tile{img: dst}
}

// Width returns the tile width in pixels.
func (t *Tile) Width() int { return t.img.Rect.Dx() }

// Height returns the tile height in pixels.
func (t *Tile) Height() int { return t.img.Rect.Dy() }

// Row returns the raw RGBA bytes of row y. The slice aliases the tile and
// must not be written to.
func (t *Tile) Row(y int) []byte {
	off := y * t.img.Stride
	return t.img.Pix[off : off+t.Width()*4]
}

// Image returns the underlying raster. Callers must treat it as read-only.
func (t *Tile) Image() *image.RGBA { return t.img }

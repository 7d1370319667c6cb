package stitch

import (
	"image"
	"image/color"

	"github.com/kiesman99/scrollstitch/pkg/tile"
)

// pageColor is the pixel at column x of page row id. Every id below 65536
// gives a distinct row.
func pageColor(id, x int) color.RGBA {
	return color.RGBA{
		R: byte(id),
		G: byte(id>>8) + byte(x),
		B: byte(id*31 + x*3),
		A: 255,
	}
}

// pageTile builds a tile whose rows are the given page rows.
func pageTile(width int, ids ...int) *tile.Tile {
	img := image.NewRGBA(image.Rect(0, 0, width, len(ids)))
	for y, id := range ids {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, pageColor(id, x))
		}
	}
	return tile.New(img)
}

// span returns the page row ids from..to-1.
func span(from, to int) []int {
	ids := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		ids = append(ids, i)
	}
	return ids
}

func window(width, from, height int) *tile.Tile {
	return pageTile(width, span(from, from+height)...)
}

// withBlack appends n black rows below t.
func withBlack(t *tile.Tile, n int) *tile.Tile {
	img := image.NewRGBA(image.Rect(0, 0, t.Width(), t.Height()+n))
	copy(img.Pix, t.Image().Pix)
	for y := t.Height(); y < t.Height()+n; y++ {
		for x := 0; x < t.Width(); x++ {
			img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
		}
	}
	return tile.New(img)
}

func rowOf(img *image.RGBA, y int) []byte {
	off := img.PixOffset(img.Rect.Min.X, y)
	return img.Pix[off : off+img.Rect.Dx()*4]
}

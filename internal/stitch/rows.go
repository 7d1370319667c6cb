package stitch

import (
	"bytes"
	"image"

	"github.com/kiesman99/scrollstitch/pkg/tile"
)

// RowsEqual reports whether row ya of a and row yb of b are identical.
// Rows of different widths never match.
func RowsEqual(a *tile.Tile, ya int, b *tile.Tile, yb int) bool {
	return bytes.Equal(a.Row(ya), b.Row(yb))
}

// BandEqual reports whether the n rows of a starting at ya match the n rows
// of b starting at yb.
func BandEqual(a *tile.Tile, ya int, b *tile.Tile, yb, n int) bool {
	for i := 0; i < n; i++ {
		if !RowsEqual(a, ya+i, b, yb+i) {
			return false
		}
	}
	return true
}

// IsBlackspaceRow reports whether more than ratio of the pixels in row y
// have an average channel value below threshold.
func IsBlackspaceRow(img *image.RGBA, y int, threshold uint8, ratio float64) bool {
	w := img.Rect.Dx()
	if w == 0 {
		return true
	}
	off := img.PixOffset(img.Rect.Min.X, y)
	row := img.Pix[off : off+w*4]

	dark := 0
	limit := 3 * int(threshold)
	for i := 0; i < len(row); i += 4 {
		if int(row[i])+int(row[i+1])+int(row[i+2]) < limit {
			dark++
		}
	}
	return float64(dark)/float64(w) > ratio
}

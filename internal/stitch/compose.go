package stitch

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/kiesman99/scrollstitch/pkg/tile"
)

// CanvasSize returns the untrimmed canvas dimensions for seq joined with a
// constant overlap.
func CanvasSize(seq []*tile.Tile, overlap int) (width, height int) {
	for _, t := range seq {
		width = max(width, t.Width())
		height += t.Height()
	}
	if len(seq) > 1 {
		height -= overlap * (len(seq) - 1)
	}
	return width, height
}

func validateSequence(seq []*tile.Tile) error {
	if len(seq) == 0 {
		return ErrEmptySequence
	}
	w := seq[0].Width()
	for i, t := range seq[1:] {
		if t.Width() != w {
			return fmt.Errorf("%w: tile %d is %d wide, tile 0 is %d wide", ErrWidthMismatch, i+1, t.Width(), w)
		}
	}
	return nil
}

func validateOverlap(seq []*tile.Tile, overlap int) error {
	if overlap < 0 {
		return fmt.Errorf("%w: %d is negative", ErrInvalidOverlap, overlap)
	}
	for i := 0; i+1 < len(seq); i++ {
		if limit := min(seq[i].Height(), seq[i+1].Height()); overlap > limit {
			return fmt.Errorf("%w: %d exceeds height %d of tile pair %d", ErrInvalidOverlap, overlap, limit, i)
		}
	}
	return nil
}

// Paste allocates the canvas for seq and draws every tile at its offset
// without trimming. Later tiles overwrite the overlap they share with the
// tile above.
func Paste(seq []*tile.Tile, overlap int) (*image.RGBA, error) {
	if err := validateSequence(seq); err != nil {
		return nil, err
	}
	if len(seq) == 1 {
		overlap = 0
	}
	if err := validateOverlap(seq, overlap); err != nil {
		return nil, err
	}

	width, height := CanvasSize(seq, overlap)
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	offset := 0
	for i, t := range seq {
		src := t.Image()
		dr := image.Rect(0, offset, t.Width(), offset+t.Height())
		draw.Draw(canvas, dr, src, src.Rect.Min, draw.Src)
		offset += t.Height()
		if i < len(seq)-1 {
			offset -= overlap
		}
	}
	return canvas, nil
}

// Compose pastes seq onto a single canvas with a constant overlap between
// consecutive tiles and trims trailing blackspace. If the true overlap
// drifts between pairs the later tiles are misplaced; see Stitcher.Report
// for detecting that.
func Compose(seq []*tile.Tile, overlap int, trim Trim) (*image.RGBA, error) {
	canvas, err := Paste(seq, overlap)
	if err != nil {
		return nil, err
	}
	return TrimBlackspace(canvas, trim.Threshold, trim.Ratio), nil
}

package stitch

import (
	"fmt"

	"github.com/kiesman99/scrollstitch/pkg/tile"
)

// FindOverlap returns the number of rows at the bottom of top that reappear
// at the start of bottom. Candidate overlaps are tried smallest first and
// the first one whose leading minRun rows match wins, so a coincidental
// match can hide a larger true overlap. Raising minRun guards against that
// at the cost of never reporting overlaps shorter than minRun. Zero means
// no overlap was found.
//
// The search never considers more rows than the shorter tile holds, so a
// bottom tile shorter than the true overlap reports a smaller match or 0.
func FindOverlap(top, bottom *tile.Tile, minRun int) (int, error) {
	if top.Width() != bottom.Width() {
		return 0, fmt.Errorf("%w: top is %d wide, bottom is %d wide", ErrWidthMismatch, top.Width(), bottom.Width())
	}

	limit := min(top.Height(), bottom.Height())
	if limit == 0 {
		return 0, nil
	}
	run := min(max(minRun, 1), limit)

	for y := run - 1; y < limit; y++ {
		if BandEqual(top, top.Height()-y-1, bottom, 0, run) {
			return y + 1, nil
		}
	}
	return 0, nil
}

package stitch

import (
	"bytes"
	"fmt"

	"github.com/kiesman99/scrollstitch/pkg/tile"
)

// Policy selects how two consecutive captures are judged to show no new
// content.
type Policy int

const (
	// BottomBand compares only the last rows of each capture, so animated
	// headers and overlays at the top do not keep the capture going.
	BottomBand Policy = iota
	// ExactFrame requires the whole captures to be identical.
	ExactFrame
)

// DefaultBandHeight is the number of bottom rows compared by BottomBand.
const DefaultBandHeight = 100

func (p Policy) String() string {
	switch p {
	case BottomBand:
		return "bottom-band"
	case ExactFrame:
		return "exact-frame"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "bottom-band", "":
		return BottomBand, nil
	case "exact-frame":
		return ExactFrame, nil
	default:
		return 0, fmt.Errorf("unknown termination policy: %s", s)
	}
}

// Terminated reports whether cur adds nothing over prev. For BottomBand
// the band is clamped to the shorter tile and the tiles are aligned at
// their bottom edges.
func Terminated(prev, cur *tile.Tile, policy Policy, band int) bool {
	if prev.Width() != cur.Width() {
		return false
	}

	switch policy {
	case ExactFrame:
		if prev.Height() != cur.Height() {
			return false
		}
		return bytes.Equal(prev.Image().Pix, cur.Image().Pix)
	default:
		if band <= 0 {
			band = DefaultBandHeight
		}
		k := min(band, prev.Height(), cur.Height())
		return BandEqual(prev, prev.Height()-k, cur, cur.Height()-k, k)
	}
}

package stitch

import "image"

// Default blackspace classification.
const (
	DefaultThreshold = 10
	DefaultRatio     = 0.95
)

// Trim holds the blackspace classification used after composing.
type Trim struct {
	Threshold uint8
	Ratio     float64
}

// DefaultTrim returns the standard blackspace classification.
func DefaultTrim() Trim {
	return Trim{Threshold: DefaultThreshold, Ratio: DefaultRatio}
}

// TrimBlackspace crops trailing blackspace rows off the bottom of img. The
// result shares pixels with img. When every row is blackspace img is
// returned unchanged rather than an empty image.
func TrimBlackspace(img *image.RGBA, threshold uint8, ratio float64) *image.RGBA {
	r := img.Rect
	for y := r.Max.Y - 1; y >= r.Min.Y; y-- {
		if !IsBlackspaceRow(img, y, threshold, ratio) {
			if y == r.Max.Y-1 {
				return img
			}
			return img.SubImage(image.Rect(r.Min.X, r.Min.Y, r.Max.X, y+1)).(*image.RGBA)
		}
	}
	return img
}

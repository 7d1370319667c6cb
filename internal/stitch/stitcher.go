package stitch

import (
	"fmt"
	"image"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/stat"

	"github.com/kiesman99/scrollstitch/pkg/tile"
)

var validate = validator.New()

// Options contains all configuration for stitching a tile sequence
type Options struct {
	// Termination selects the end-of-content policy used by the capture loop.
	Termination Policy `validate:"oneof=0 1"`
	// BandHeight is the number of bottom rows compared by BottomBand.
	BandHeight int `validate:"gte=1"`
	// MinRun is the number of consecutive rows an overlap candidate must match.
	MinRun int `validate:"gte=1"`
	// Strict recomputes the overlap of every pair and fails on drift.
	Strict bool
	// Overlap forces the overlap instead of detecting it. Negative means detect.
	Overlap int `validate:"gte=-1"`
	// Threshold and Ratio classify blackspace rows.
	Threshold uint8
	Ratio     float64 `validate:"gt=0,lte=1"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() *Options {
	return &Options{
		Termination: BottomBand,
		BandHeight:  DefaultBandHeight,
		MinRun:      1,
		Overlap:     -1,
		Threshold:   DefaultThreshold,
		Ratio:       DefaultRatio,
	}
}

// Validate checks the option ranges.
func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid stitch options: %w", err)
	}
	return nil
}

// Stitcher handles the main stitching logic
type Stitcher struct {
	options *Options
}

// NewStitcher creates a new stitcher instance
func NewStitcher(opts *Options) (*Stitcher, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Stitcher{options: opts}, nil
}

// Options returns the stitcher configuration.
func (s *Stitcher) Options() Options { return *s.options }

// Terminated applies the configured termination policy to two consecutive
// captures.
func (s *Stitcher) Terminated(prev, cur *tile.Tile) bool {
	return Terminated(prev, cur, s.options.Termination, s.options.BandHeight)
}

// Overlap returns the overlap used for seq: the configured value if one is
// forced, otherwise the overlap of the first tile pair.
func (s *Stitcher) Overlap(seq []*tile.Tile) (int, error) {
	if err := validateSequence(seq); err != nil {
		return 0, err
	}
	if len(seq) == 1 {
		return 0, nil
	}
	if s.options.Overlap >= 0 {
		return s.options.Overlap, nil
	}
	return FindOverlap(seq[0], seq[1], s.options.MinRun)
}

// Report summarizes the overlap of every consecutive pair.
type Report struct {
	Overlaps []int
	Mean     float64
	StdDev   float64
	// Drift lists the pair indexes whose overlap differs from the first pair.
	Drift []int
}

// Report measures every tile pair of seq. Sequences of fewer than two tiles
// give an empty report.
func (s *Stitcher) Report(seq []*tile.Tile) (*Report, error) {
	if err := validateSequence(seq); err != nil {
		return nil, err
	}
	r := &Report{}
	if len(seq) < 2 {
		return r, nil
	}

	xs := make([]float64, 0, len(seq)-1)
	for i := 0; i+1 < len(seq); i++ {
		o, err := FindOverlap(seq[i], seq[i+1], s.options.MinRun)
		if err != nil {
			return nil, fmt.Errorf("tile pair %d: %w", i, err)
		}
		r.Overlaps = append(r.Overlaps, o)
		xs = append(xs, float64(o))
	}

	r.Drift = driftFrom(r.Overlaps, r.Overlaps[0])

	if len(xs) > 1 {
		r.Mean, r.StdDev = stat.MeanStdDev(xs, nil)
	} else {
		r.Mean = xs[0]
	}
	return r, nil
}

// driftFrom lists the indexes of overlaps that differ from want.
func driftFrom(overlaps []int, want int) []int {
	var drift []int
	for i, o := range overlaps {
		if o != want {
			drift = append(drift, i)
		}
	}
	return drift
}

// Result is a composed image together with how it was produced.
type Result struct {
	Image   *image.RGBA
	Overlap int
	Tiles   int
}

// Stitch composes seq into one trimmed canvas.
func (s *Stitcher) Stitch(seq []*tile.Tile) (*Result, error) {
	overlap, err := s.Overlap(seq)
	if err != nil {
		return nil, err
	}

	if s.options.Strict && len(seq) > 1 {
		rep, err := s.Report(seq)
		if err != nil {
			return nil, err
		}
		if drift := driftFrom(rep.Overlaps, overlap); len(drift) > 0 {
			return nil, fmt.Errorf("%w: pairs %v do not overlap by %d rows (measured %v, mean %.1f, stddev %.1f)",
				ErrOverlapDrift, drift, overlap, rep.Overlaps, rep.Mean, rep.StdDev)
		}
	}

	img, err := Compose(seq, overlap, Trim{Threshold: s.options.Threshold, Ratio: s.options.Ratio})
	if err != nil {
		return nil, err
	}

	return &Result{
		Image:   img,
		Overlap: overlap,
		Tiles:   len(seq),
	}, nil
}

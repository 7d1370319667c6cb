package stitch

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/scrollstitch/pkg/tile"
)

func scrolled(width, height, step, n int) []*tile.Tile {
	seq := make([]*tile.Tile, 0, n)
	for i := 0; i < n; i++ {
		seq = append(seq, window(width, 1000+i*step, height))
	}
	return seq
}

func TestNewStitcherValidatesOptions(t *testing.T) {
	_, err := NewStitcher(nil)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Ratio = 1.5
	_, err = NewStitcher(opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.BandHeight = 0
	_, err = NewStitcher(opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.Termination = Policy(7)
	_, err = NewStitcher(opts)
	assert.Error(t, err)
}

func TestStitcherStitch(t *testing.T) {
	s, err := NewStitcher(nil)
	require.NoError(t, err)

	seq := scrolled(100, 50, 40, 3)
	res, err := s.Stitch(seq)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Overlap)
	assert.Equal(t, 3, res.Tiles)
	assert.Equal(t, image.Rect(0, 0, 100, 130), res.Image.Rect)
}

func TestStitcherForcedOverlap(t *testing.T) {
	opts := DefaultOptions()
	opts.Overlap = 0
	s, err := NewStitcher(opts)
	require.NoError(t, err)

	res, err := s.Stitch(scrolled(100, 50, 40, 3))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Overlap)
	assert.Equal(t, 150, res.Image.Rect.Dy())
}

func TestStitcherSingleTile(t *testing.T) {
	s, err := NewStitcher(nil)
	require.NoError(t, err)

	overlap, err := s.Overlap(scrolled(100, 50, 40, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, overlap)
}

func TestStitcherEmpty(t *testing.T) {
	s, err := NewStitcher(nil)
	require.NoError(t, err)

	_, err = s.Stitch(nil)
	assert.ErrorIs(t, err, ErrEmptySequence)
}

func TestStitcherReport(t *testing.T) {
	s, err := NewStitcher(nil)
	require.NoError(t, err)

	seq := scrolled(100, 50, 40, 4)
	rep, err := s.Report(seq)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 10}, rep.Overlaps)
	assert.Empty(t, rep.Drift)
	assert.InDelta(t, 10, rep.Mean, 1e-9)
	assert.InDelta(t, 0, rep.StdDev, 1e-9)
}

func TestStitcherStrictDetectsDrift(t *testing.T) {
	// The second scroll moved 30 rows instead of 40.
	seq := []*tile.Tile{
		window(100, 1000, 50),
		window(100, 1040, 50),
		window(100, 1070, 50),
		window(100, 1110, 50),
	}

	s, err := NewStitcher(nil)
	require.NoError(t, err)
	rep, err := s.Report(seq)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20, 10}, rep.Overlaps)
	assert.Equal(t, []int{1}, rep.Drift)

	// Lenient mode keeps the first pair overlap.
	res, err := s.Stitch(seq)
	require.NoError(t, err)
	assert.Equal(t, 170, res.Image.Rect.Dy())

	opts := DefaultOptions()
	opts.Strict = true
	strict, err := NewStitcher(opts)
	require.NoError(t, err)
	_, err = strict.Stitch(seq)
	assert.ErrorIs(t, err, ErrOverlapDrift)
}

func TestStitcherStrictChecksFinalPair(t *testing.T) {
	// The last scroll hit the end of the page and moved less.
	seq := []*tile.Tile{
		window(100, 1000, 50),
		window(100, 1040, 50),
		window(100, 1060, 50),
	}

	s, err := NewStitcher(nil)
	require.NoError(t, err)
	rep, err := s.Report(seq)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30}, rep.Overlaps)
	assert.Equal(t, []int{1}, rep.Drift)

	opts := DefaultOptions()
	opts.Strict = true
	strict, err := NewStitcher(opts)
	require.NoError(t, err)

	_, err = strict.Stitch(seq)
	assert.ErrorIs(t, err, ErrOverlapDrift)
}

func TestStitcherStrictUsesForcedOverlap(t *testing.T) {
	seq := scrolled(100, 50, 40, 3)

	opts := DefaultOptions()
	opts.Strict = true
	opts.Overlap = 10
	s, err := NewStitcher(opts)
	require.NoError(t, err)
	res, err := s.Stitch(seq)
	require.NoError(t, err)
	assert.Equal(t, 130, res.Image.Rect.Dy())

	// Every pair is consistent, but not with the forced value.
	opts.Overlap = 5
	s, err = NewStitcher(opts)
	require.NoError(t, err)
	_, err = s.Stitch(seq)
	require.ErrorIs(t, err, ErrOverlapDrift)
	assert.Contains(t, err.Error(), "by 5 rows")
	assert.Contains(t, err.Error(), "pairs [0 1]")

	// Two tiles are enough to check.
	_, err = s.Stitch(seq[:2])
	assert.ErrorIs(t, err, ErrOverlapDrift)
}

func TestStitcherTerminated(t *testing.T) {
	s, err := NewStitcher(nil)
	require.NoError(t, err)

	a := window(100, 1000, 120)
	assert.True(t, s.Terminated(a, window(100, 1000, 120)))
	assert.False(t, s.Terminated(a, window(100, 1040, 120)))
}

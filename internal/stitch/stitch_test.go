package stitch

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/scrollstitch/pkg/tile"
)

func TestRowsEqual(t *testing.T) {
	a := window(20, 0, 10)
	b := window(20, 5, 10)

	assert.True(t, RowsEqual(a, 5, b, 0))
	assert.True(t, RowsEqual(a, 9, b, 4))
	assert.False(t, RowsEqual(a, 4, b, 0))
	assert.False(t, RowsEqual(a, 0, window(21, 0, 1), 0))

	assert.True(t, BandEqual(a, 5, b, 0, 5))
	assert.False(t, BandEqual(a, 4, b, 0, 5))
}

func TestRowsEqualSinglePixel(t *testing.T) {
	a := window(20, 0, 1)
	img := image.NewRGBA(image.Rect(0, 0, 20, 1))
	copy(img.Pix, a.Image().Pix)
	img.SetRGBA(13, 0, color.RGBA{1, 1, 1, 255})

	assert.False(t, RowsEqual(a, 0, tile.New(img), 0))
}

func TestIsBlackspaceRow(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 3))
	for x := 0; x < 100; x++ {
		img.SetRGBA(x, 0, color.RGBA{0, 0, 0, 255})
		img.SetRGBA(x, 1, color.RGBA{9, 9, 9, 255})
		img.SetRGBA(x, 2, color.RGBA{0, 0, 0, 255})
	}
	// 5 bright pixels: 95% dark does not exceed the ratio.
	for x := 0; x < 5; x++ {
		img.SetRGBA(x, 2, color.RGBA{200, 200, 200, 255})
	}

	assert.True(t, IsBlackspaceRow(img, 0, 10, 0.95))
	assert.True(t, IsBlackspaceRow(img, 1, 10, 0.95))
	assert.False(t, IsBlackspaceRow(img, 1, 9, 0.95))
	assert.False(t, IsBlackspaceRow(img, 2, 10, 0.95))
	assert.True(t, IsBlackspaceRow(img, 2, 10, 0.9))
}

func TestFindOverlap(t *testing.T) {
	for _, h := range []int{1, 10, 37, 50} {
		top := window(100, 0, 50)
		bottom := window(100, 50-h, 50)

		got, err := FindOverlap(top, bottom, 1)
		require.NoError(t, err)
		assert.Equal(t, h, got, "overlap %d", h)
	}
}

func TestFindOverlapNone(t *testing.T) {
	got, err := FindOverlap(window(100, 0, 50), window(100, 1000, 50), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestFindOverlapShortBottom(t *testing.T) {
	top := window(100, 0, 50)
	bottom := window(100, 45, 8)

	got, err := FindOverlap(top, bottom, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestFindOverlapCappedByShorterTile(t *testing.T) {
	// bottom lies wholly inside top, ten rows above its end.
	top := window(100, 0, 50)
	bottom := window(100, 40, 8)

	got, err := FindOverlap(top, bottom, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestFindOverlapWidthMismatch(t *testing.T) {
	_, err := FindOverlap(window(100, 0, 50), window(90, 40, 50), 1)
	assert.ErrorIs(t, err, ErrWidthMismatch)
}

func TestFindOverlapCoincidentalRow(t *testing.T) {
	// Page row 49 repeats row 30, so the last row of top matches the first
	// row of bottom before the true 20 row overlap is reached.
	top := pageTile(100, append(span(0, 49), 30)...)
	bottom := pageTile(100, append(append(span(30, 49), 30), span(50, 80)...)...)

	got, err := FindOverlap(top, bottom, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = FindOverlap(top, bottom, 2)
	require.NoError(t, err)
	assert.Equal(t, 20, got)
}

func TestTerminatedBottomBand(t *testing.T) {
	prev := window(50, 0, 150)

	// Different top rows, identical last 100 rows.
	ids := append(span(5000, 5050), span(50, 150)...)
	cur := pageTile(50, ids...)
	assert.True(t, Terminated(prev, cur, BottomBand, 100))
	assert.False(t, Terminated(prev, cur, ExactFrame, 100))

	// One differing pixel inside the band.
	img := image.NewRGBA(cur.Image().Rect)
	copy(img.Pix, cur.Image().Pix)
	img.SetRGBA(7, 120, color.RGBA{1, 2, 3, 255})
	assert.False(t, Terminated(prev, tile.New(img), BottomBand, 100))

	// Still progressing.
	assert.False(t, Terminated(prev, window(50, 120, 150), BottomBand, 100))
}

func TestTerminatedBandClampedToHeight(t *testing.T) {
	a := window(50, 0, 30)
	assert.True(t, Terminated(a, window(50, 0, 30), BottomBand, 100))
	assert.True(t, Terminated(a, window(50, 0, 30), BottomBand, 0))
	assert.False(t, Terminated(a, window(50, 1, 30), BottomBand, 100))
}

func TestTerminatedExactFrame(t *testing.T) {
	a := window(50, 0, 30)
	assert.True(t, Terminated(a, window(50, 0, 30), ExactFrame, 100))
	assert.False(t, Terminated(a, window(50, 0, 29), ExactFrame, 100))
	assert.False(t, Terminated(a, window(40, 0, 30), ExactFrame, 100))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("exact-frame")
	require.NoError(t, err)
	assert.Equal(t, ExactFrame, p)
	assert.Equal(t, "exact-frame", p.String())

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, BottomBand, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}

func TestTrimBlackspace(t *testing.T) {
	canvas := withBlack(window(100, 1000, 100), 50).Image()
	require.Equal(t, 150, canvas.Rect.Dy())

	trimmed := TrimBlackspace(canvas, DefaultThreshold, DefaultRatio)
	assert.Equal(t, image.Rect(0, 0, 100, 100), trimmed.Rect)
	assert.Equal(t, rowOf(canvas, 99), rowOf(trimmed, 99))
}

func TestTrimBlackspaceNothingToTrim(t *testing.T) {
	canvas := window(100, 1000, 40).Image()
	assert.Same(t, canvas, TrimBlackspace(canvas, DefaultThreshold, DefaultRatio))
}

func TestTrimBlackspaceAllBlack(t *testing.T) {
	canvas := withBlack(window(100, 0, 0), 30).Image()
	trimmed := TrimBlackspace(canvas, DefaultThreshold, DefaultRatio)
	assert.Equal(t, 30, trimmed.Rect.Dy())
}

func TestTrimBlackspaceKeepsMostlyDarkContent(t *testing.T) {
	// A content row with 10% bright pixels is not blackspace.
	img := image.NewRGBA(image.Rect(0, 0, 100, 4))
	for x := 0; x < 10; x++ {
		img.SetRGBA(x, 1, color.RGBA{255, 255, 255, 255})
	}
	trimmed := TrimBlackspace(img, DefaultThreshold, DefaultRatio)
	assert.Equal(t, 2, trimmed.Rect.Dy())
}

func TestComposeThreeTiles(t *testing.T) {
	seq := []*tile.Tile{
		window(100, 0, 50),
		window(100, 40, 50),
		window(100, 80, 50),
	}

	overlap, err := FindOverlap(seq[0], seq[1], 1)
	require.NoError(t, err)
	require.Equal(t, 10, overlap)

	w, h := CanvasSize(seq, overlap)
	assert.Equal(t, 100, w)
	assert.Equal(t, 130, h)

	img, err := Compose(seq, overlap, DefaultTrim())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 130), img.Rect)

	want := window(100, 0, 130).Image()
	assert.Equal(t, want.Pix, img.Pix)
}

func TestComposeSingleTile(t *testing.T) {
	only := window(100, 1000, 60)

	img, err := Compose([]*tile.Tile{only}, 25, DefaultTrim())
	require.NoError(t, err)
	assert.Equal(t, only.Image().Pix, img.Pix)

	img, err = Compose([]*tile.Tile{withBlack(only, 20)}, 0, DefaultTrim())
	require.NoError(t, err)
	assert.Equal(t, 60, img.Rect.Dy())
}

func TestComposeShortFinalTile(t *testing.T) {
	// The final tile was padded to full height with black.
	seq := []*tile.Tile{
		window(100, 1000, 50),
		window(100, 1040, 50),
		withBlack(window(100, 1080, 15), 35),
	}

	canvas, err := Paste(seq, 10)
	require.NoError(t, err)
	assert.Equal(t, 130, canvas.Rect.Dy())

	img, err := Compose(seq, 10, DefaultTrim())
	require.NoError(t, err)
	assert.Equal(t, 95, img.Rect.Dy())
	// The trimmed image is a sub-image; compare only its own rows.
	assert.Equal(t, window(100, 1000, 95).Image().Pix, img.Pix[:img.Stride*img.Rect.Dy()])
}

func TestComposeZeroOverlapStacks(t *testing.T) {
	seq := []*tile.Tile{window(100, 1000, 20), window(100, 3000, 20)}

	img, err := Compose(seq, 0, DefaultTrim())
	require.NoError(t, err)
	assert.Equal(t, 40, img.Rect.Dy())
	assert.Equal(t, rowOf(seq[1].Image(), 0), rowOf(img, 20))
}

func TestComposeErrors(t *testing.T) {
	_, err := Compose(nil, 0, DefaultTrim())
	assert.ErrorIs(t, err, ErrEmptySequence)

	_, err = Compose([]*tile.Tile{window(100, 0, 10), window(90, 0, 10)}, 0, DefaultTrim())
	assert.ErrorIs(t, err, ErrWidthMismatch)

	_, err = Compose([]*tile.Tile{window(100, 0, 10), window(100, 0, 10)}, -1, DefaultTrim())
	assert.ErrorIs(t, err, ErrInvalidOverlap)

	_, err = Compose([]*tile.Tile{window(100, 0, 10), window(100, 0, 5)}, 6, DefaultTrim())
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

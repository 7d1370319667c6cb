// Package capture drives a scrolling surface until it stops producing new
// content and collects the captured tiles in order.
package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiesman99/scrollstitch/internal/stitch"
	"github.com/kiesman99/scrollstitch/pkg/tile"
)

// DefaultMaxTiles bounds a capture when no limit is configured.
const DefaultMaxTiles = 200

// ErrTooManyTiles is returned when the surface keeps changing past the tile
// limit.
var ErrTooManyTiles = errors.New("tile limit reached before content ended")

// Source is a live scrolling surface.
type Source interface {
	// CaptureTile returns the currently visible tile with any unrendered
	// transparent rows already removed.
	CaptureTile(ctx context.Context) (*tile.Tile, error)
	// Scroll advances the viewport.
	Scroll(ctx context.Context) error
}

// Options controls a capture run.
type Options struct {
	// MaxTiles stops the run with ErrTooManyTiles. Zero uses DefaultMaxTiles.
	MaxTiles int
	// OnTile is called with every kept tile and its zero-based index.
	OnTile func(i int, t *tile.Tile)
	// Logf receives progress lines.
	Logf func(format string, args ...any)
}

func (o *Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// Run captures tiles from src, scrolling between captures, until the
// stitcher's termination policy reports that the newest tile adds nothing.
// That tile is discarded. The returned sequence is in capture order.
func Run(ctx context.Context, src Source, s *stitch.Stitcher, opts Options) ([]*tile.Tile, error) {
	limit := opts.MaxTiles
	if limit <= 0 {
		limit = DefaultMaxTiles
	}

	var seq []*tile.Tile
	for {
		if err := ctx.Err(); err != nil {
			return seq, err
		}

		t, err := src.CaptureTile(ctx)
		if err != nil {
			return seq, fmt.Errorf("capture tile %d: %w", len(seq), err)
		}

		if n := len(seq); n > 0 && s.Terminated(seq[n-1], t) {
			opts.logf("==Termination: tile %d repeats tile %d\n", n, n-1)
			return seq, nil
		}

		seq = append(seq, t)
		opts.logf("==Tile %d: %dx%d\n", len(seq)-1, t.Width(), t.Height())
		if opts.OnTile != nil {
			opts.OnTile(len(seq)-1, t)
		}

		if len(seq) >= limit {
			return seq, ErrTooManyTiles
		}

		if err := src.Scroll(ctx); err != nil {
			return seq, fmt.Errorf("scroll after tile %d: %w", len(seq)-1, err)
		}
	}
}

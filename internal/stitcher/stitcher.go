package stitcher

import (
	"bytes"
	"context"
	"fmt"

	"github.com/kiesman99/scrollstitch/internal/stitch"
	"github.com/kiesman99/scrollstitch/pkg/tile"
)

// Options contains all stitching parameters
type Options struct {
	// Encoded tiles in capture order
	Tiles [][]byte

	// Engine configuration
	Engine *stitch.Options

	OutputFormat tile.Format
}

// Result contains the stitching result
type Result struct {
	ImageData []byte
	Width     int
	Height    int
	Overlap   int
	Tiles     int
}

// TileError represents errors related to decoding tiles
type TileError struct {
	Message      string
	FailedTiles  []FailedTile
	DecodedTiles int
	TotalTiles   int
}

func (e *TileError) Error() string {
	return e.Message
}

// FailedTile represents a single tile that could not be decoded
type FailedTile struct {
	Index int
	Error string
}

// Stitcher performs stitching operations on encoded tiles
type Stitcher struct{}

// New creates a new stitcher instance
func New() *Stitcher {
	return &Stitcher{}
}

// Decode decodes every tile, collecting all failures into a TileError.
func (s *Stitcher) Decode(ctx context.Context, data [][]byte) ([]*tile.Tile, error) {
	var failed []FailedTile
	seq := make([]*tile.Tile, 0, len(data))

	for i, d := range data {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := tile.Decode(d)
		if err != nil {
			failed = append(failed, FailedTile{
				Index: i,
				Error: fmt.Sprintf("decode error: %v", err),
			})
			continue
		}
		seq = append(seq, t)
	}

	if len(failed) > 0 {
		return nil, &TileError{
			Message:      fmt.Sprintf("%d of %d tiles could not be decoded", len(failed), len(data)),
			FailedTiles:  failed,
			DecodedTiles: len(seq),
			TotalTiles:   len(data),
		}
	}
	return seq, nil
}

// Stitch performs the stitching operation
func (s *Stitcher) Stitch(ctx context.Context, opts *Options) (*Result, error) {
	engine, err := stitch.NewStitcher(opts.Engine)
	if err != nil {
		return nil, err
	}

	seq, err := s.Decode(ctx, opts.Tiles)
	if err != nil {
		return nil, err
	}

	res, err := engine.Stitch(seq)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := tile.Encode(&out, res.Image, opts.OutputFormat); err != nil {
		return nil, fmt.Errorf("failed to encode output image: %w", err)
	}

	return &Result{
		ImageData: out.Bytes(),
		Width:     res.Image.Rect.Dx(),
		Height:    res.Image.Rect.Dy(),
		Overlap:   res.Overlap,
		Tiles:     res.Tiles,
	}, nil
}

// Overlap decodes two tiles and returns their overlap.
func (s *Stitcher) Overlap(ctx context.Context, top, bottom []byte, minRun int) (int, error) {
	seq, err := s.Decode(ctx, [][]byte{top, bottom})
	if err != nil {
		return 0, err
	}
	return stitch.FindOverlap(seq[0], seq[1], minRun)
}

// Terminated decodes two consecutive captures and applies policy.
func (s *Stitcher) Terminated(ctx context.Context, prev, cur []byte, policy stitch.Policy, band int) (bool, error) {
	seq, err := s.Decode(ctx, [][]byte{prev, cur})
	if err != nil {
		return false, err
	}
	return stitch.Terminated(seq[0], seq[1], policy, band), nil
}

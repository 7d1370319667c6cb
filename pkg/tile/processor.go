package tile

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode detects the image format and decodes data into a Tile.
func Decode(data []byte) (*Tile, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return New(img), nil
}

// DecodeImage detects the image format and decodes data without flattening,
// so that the alpha channel is still available for ValidHeight.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) >= 4 && bytes.Equal(data[:4], []byte{0x89, 0x50, 0x4E, 0x47}) {
		return png.Decode(bytes.NewReader(data))
	} else if len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFF, 0xD8}) {
		return jpeg.Decode(bytes.NewReader(data))
	}

	// WebP, BMP and TIFF register themselves with the image package.
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unrecognized image format: %w", err)
	}
	return img, nil
}

// ReadFile decodes the tile stored at path.
func ReadFile(path string) (*Tile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ValidHeight returns the height of the rendered part of img. Scanning from
// the bottom, the first row whose centre pixel is not fully transparent ends
// the content. A fully transparent image keeps its full height.
func ValidHeight(img image.Image) int {
	b := img.Bounds()
	cx := b.Min.X + b.Dx()/2
	for y := b.Max.Y - 1; y >= b.Min.Y; y-- {
		if _, _, _, a := img.At(cx, y).RGBA(); a != 0 {
			return y - b.Min.Y + 1
		}
	}
	return b.Dy()
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// CropValid cuts the transparent rows reported by ValidHeight off the
// bottom of img. Images that cannot be cropped are returned unchanged.
func CropValid(img image.Image) image.Image {
	h := ValidHeight(img)
	b := img.Bounds()
	if h == b.Dy() {
		return img
	}
	si, ok := img.(subImager)
	if !ok {
		return img
	}
	return si.SubImage(image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+h))
}

// Encode writes img to w in the given format. BMP output of an opaque
// image is a 24-bit RGB bitmap.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unknown format: %d", f)
	}
}

// Write encodes img to filename, or to stdout when filename is empty.
func Write(filename string, img image.Image, f Format) error {
	var output io.Writer

	if filename == "" {
		output = os.Stdout
		fmt.Fprintf(os.Stderr, "Output %s: stdout\n", f)
	} else {
		fmt.Fprintf(os.Stderr, "Output %s: %s\n", f, filename)
		file, err := os.Create(filename)
		if err != nil {
			return err
		}
		defer file.Close()
		output = file
	}

	return Encode(output, img, f)
}

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png", "":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	default:
		return 0, fmt.Errorf("unknown format: %s", s)
	}
}

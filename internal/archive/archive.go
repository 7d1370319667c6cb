// Package archive stores a captured tile sequence as a tar+zstd file so a
// capture can be audited or stitched again later.
//
// Layout:
//
//	manifest.json      canonical JSON (RFC 8785) describing the tiles
//	manifest.sha256    hex SHA-256 of manifest.json
//	tiles/0000.png     one PNG per tile, in capture order
package archive

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gowebpki/jcs"
	"github.com/klauspost/compress/zstd"

	"github.com/kiesman99/scrollstitch/pkg/tile"
)

const (
	manifestName = "manifest.json"
	digestName   = "manifest.sha256"

	// Version is the manifest layout version written by this package.
	Version = 1

	maxTotalSize = 2 * 1024 * 1024 * 1024 // 2GB
	maxEntrySize = 256 * 1024 * 1024      // 256MB
)

// ErrCorrupt is returned when an archive does not match its manifest.
var ErrCorrupt = errors.New("corrupt tile archive")

// Entry describes one archived tile.
type Entry struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	SHA256 string `json:"sha256"`
}

// Manifest describes a tile archive.
type Manifest struct {
	Version int     `json:"version"`
	Source  string  `json:"source,omitempty"`
	Created string  `json:"created"`
	Tiles   []Entry `json:"tiles"`
}

// Write archives seq to w. source is recorded in the manifest, typically
// the captured page URL.
func Write(w io.Writer, seq []*tile.Tile, source string) (*Manifest, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, err
	}
	tw := tar.NewWriter(zw)

	m := &Manifest{
		Version: Version,
		Source:  source,
		Created: time.Now().UTC().Format(time.RFC3339),
	}

	for i, t := range seq {
		var buf bytes.Buffer
		if err := tile.Encode(&buf, t.Image(), tile.FormatPNG); err != nil {
			return nil, fmt.Errorf("encode tile %d: %w", i, err)
		}
		sum := sha256.Sum256(buf.Bytes())
		e := Entry{
			Name:   fmt.Sprintf("tiles/%04d.png", i),
			Width:  t.Width(),
			Height: t.Height(),
			SHA256: hex.EncodeToString(sum[:]),
		}
		if err := writeEntry(tw, e.Name, buf.Bytes()); err != nil {
			return nil, err
		}
		m.Tiles = append(m.Tiles, e)
	}

	canonical, err := canonicalManifest(m)
	if err != nil {
		return nil, err
	}
	if err := writeEntry(tw, manifestName, canonical); err != nil {
		return nil, err
	}
	sum := sha256.Sum256(canonical)
	if err := writeEntry(tw, digestName, []byte(hex.EncodeToString(sum[:])+"\n")); err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteFile archives seq to path.
func WriteFile(path string, seq []*tile.Tile, source string) (*Manifest, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	m, err := Write(f, seq, source)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return m, err
}

func canonicalManifest(m *Manifest) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(raw)
}

func writeEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// limitedReader fails once more than limit bytes have been read.
type limitedReader struct {
	reader io.Reader
	limit  int64
	read   int64
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("size limit exceeded: %d bytes", lr.limit)
	}
	if int64(len(p)) > lr.limit-lr.read {
		p = p[:lr.limit-lr.read]
	}
	n, err := lr.reader.Read(p)
	lr.read += int64(n)
	return n, err
}

// Read extracts a tile archive, verifying every tile against the manifest
// and the manifest against its digest. Tiles are returned in manifest order.
func Read(r io.Reader) (*Manifest, []*tile.Tile, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer zr.Close()

	tr := tar.NewReader(&limitedReader{reader: zr, limit: maxTotalSize})
	files := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if hdr.Size > maxEntrySize {
			return nil, nil, fmt.Errorf("%w: %s is %d bytes", ErrCorrupt, hdr.Name, hdr.Size)
		}
		data, err := io.ReadAll(io.LimitReader(tr, maxEntrySize))
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		files[hdr.Name] = data
	}

	raw, ok := files[manifestName]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing %s", ErrCorrupt, manifestName)
	}
	if digest, ok := files[digestName]; ok {
		sum := sha256.Sum256(raw)
		if strings.TrimSpace(string(digest)) != hex.EncodeToString(sum[:]) {
			return nil, nil, fmt.Errorf("%w: manifest digest mismatch", ErrCorrupt)
		}
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if m.Version != Version {
		return nil, nil, fmt.Errorf("unsupported archive version %d", m.Version)
	}

	seq := make([]*tile.Tile, 0, len(m.Tiles))
	for _, e := range m.Tiles {
		data, ok := files[e.Name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: missing %s", ErrCorrupt, e.Name)
		}
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != e.SHA256 {
			return nil, nil, fmt.Errorf("%w: %s hash mismatch", ErrCorrupt, e.Name)
		}
		t, err := tile.Decode(data)
		if err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", e.Name, err)
		}
		if t.Width() != e.Width || t.Height() != e.Height {
			return nil, nil, fmt.Errorf("%w: %s is %dx%d, manifest says %dx%d",
				ErrCorrupt, e.Name, t.Width(), t.Height(), e.Width, e.Height)
		}
		seq = append(seq, t)
	}
	return &m, seq, nil
}

// ReadFile extracts the tile archive at path.
func ReadFile(path string) (*Manifest, []*tile.Tile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Read(f)
}

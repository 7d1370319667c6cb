// Package browser captures tiles from a page rendered in Chromium.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/kiesman99/scrollstitch/pkg/tile"
)

// Options configures the browser and the page being captured.
type Options struct {
	URL string
	// Selector crops every capture to the visible part of this element.
	// Empty captures the whole viewport.
	Selector string
	// Hide lists selectors of overlays removed before capturing.
	Hide []string
	// Cookies is a JSON file holding an array of cookies to set before
	// navigating.
	Cookies string
	// ScrollFraction is the share of the viewport height scrolled per step.
	ScrollFraction float64
	// Delay is the settle time after each scroll.
	Delay time.Duration
	// Headless runs the browser without a window.
	Headless bool
	// Bin overrides the browser executable.
	Bin string
	// ControlURL connects to an already running browser instead of
	// launching one.
	ControlURL string
}

// Source is a capture.Source backed by a rod page.
type Source struct {
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	element  *rod.Element
	// scale converts CSS pixels to screenshot pixels.
	scale float64
}

// ErrElementHidden is returned by CaptureTile once the selected element has
// scrolled completely out of the viewport.
var ErrElementHidden = errors.New("element is outside the viewport")

// Open launches or connects to a browser, loads the page and prepares it
// for capturing.
func Open(ctx context.Context, opts Options) (*Source, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("no page URL provided")
	}
	if opts.ScrollFraction <= 0 {
		opts.ScrollFraction = 0.8
	}

	s := &Source{opts: opts}

	controlURL := opts.ControlURL
	if controlURL == "" {
		s.launcher = launcher.New().Headless(opts.Headless)
		if opts.Bin != "" {
			s.launcher = s.launcher.Bin(opts.Bin)
		}
		u, err := s.launcher.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	s.browser = b

	if opts.Cookies != "" {
		if err := s.setCookies(opts.Cookies); err != nil {
			s.Close()
			return nil, err
		}
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{URL: opts.URL})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open %s: %w", opts.URL, err)
	}
	s.page = page

	if err := page.WaitLoad(); err != nil {
		s.Close()
		return nil, fmt.Errorf("load %s: %w", opts.URL, err)
	}
	sleep(ctx, 2*time.Second)

	for _, sel := range opts.Hide {
		if _, err := page.Eval(`(s) => { const e = document.querySelector(s); if (e) e.style.display = 'none' }`, sel); err != nil {
			fmt.Fprintf(os.Stderr, "Can't hide %s: %v\n", sel, err)
		}
	}

	if opts.Selector != "" {
		if err := s.findElement(opts.Selector); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

type cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
}

// LoadCookies reads a cookie export: a JSON array of cookie objects.
// SameSite and expiry attributes are ignored, so every cookie lives for
// the capture session only.
func LoadCookies(path string) ([]*proto.NetworkCookieParam, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	var cookies []cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse cookies %s: %w", path, err)
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		})
	}
	return params, nil
}

func (s *Source) setCookies(path string) error {
	params, err := LoadCookies(path)
	if err != nil {
		return err
	}
	if err := s.browser.SetCookies(params); err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}
	return nil
}

func (s *Source) findElement(selector string) error {
	el, err := s.page.Element(selector)
	if err != nil {
		return fmt.Errorf("find %s: %w", selector, err)
	}
	s.element = el

	s.scale = 1
	res, err := s.page.Eval(`() => window.devicePixelRatio`)
	if err != nil {
		return fmt.Errorf("read device pixel ratio: %w", err)
	}
	if dpr := res.Value.Num(); dpr > 0 {
		s.scale = dpr
	}
	return nil
}

// viewportBox returns the element's bounding box relative to the viewport,
// in CSS pixels.
func (s *Source) viewportBox(ctx context.Context) (*proto.DOMRect, error) {
	res, err := s.element.Context(ctx).Eval(`() => this.getBoundingClientRect().toJSON()`)
	if err != nil {
		return nil, fmt.Errorf("measure %s: %w", s.opts.Selector, err)
	}
	v := res.Value
	return &proto.DOMRect{
		X:      v.Get("x").Num(),
		Y:      v.Get("y").Num(),
		Width:  v.Get("width").Num(),
		Height: v.Get("height").Num(),
	}, nil
}

// visibleRect maps box, in viewport CSS pixels, onto a screenshot with the
// given bounds. The width is rounded independently of the position so every
// capture of the same element has the same width; the vertical extent is
// clamped to the screenshot and may be empty.
func visibleRect(bounds image.Rectangle, box *proto.DOMRect, scale float64) image.Rectangle {
	x0 := bounds.Min.X + int(math.Round(box.X*scale))
	x1 := x0 + int(math.Round(box.Width*scale))
	x0 = max(x0, bounds.Min.X)
	x1 = min(x1, bounds.Max.X)

	y0 := bounds.Min.Y + int(math.Round(box.Y*scale))
	y1 := bounds.Min.Y + int(math.Round((box.Y+box.Height)*scale))
	y0 = min(max(y0, bounds.Min.Y), bounds.Max.Y)
	y1 = min(max(y1, y0), bounds.Max.Y)

	return image.Rect(x0, y0, x1, y1)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// cropElement cuts the visible part of box out of a viewport screenshot.
func cropElement(img image.Image, box *proto.DOMRect, scale float64) (image.Image, error) {
	r := visibleRect(img.Bounds(), box, scale)
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return nil, ErrElementHidden
	}
	si, ok := img.(subImager)
	if !ok {
		return nil, fmt.Errorf("cannot crop %T", img)
	}
	return si.SubImage(r), nil
}

// CaptureTile screenshots the viewport, crops it to the visible part of the
// selected element if there is one, and removes rows the page has not
// rendered.
func (s *Source) CaptureTile(ctx context.Context) (*tile.Tile, error) {
	buf, err := s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, err
	}

	img, err := tile.DecodeImage(buf)
	if err != nil {
		return nil, err
	}

	if s.element != nil {
		box, err := s.viewportBox(ctx)
		if err != nil {
			return nil, err
		}
		if img, err = cropElement(img, box, s.scale); err != nil {
			return nil, err
		}
	}
	return tile.New(tile.CropValid(img)), nil
}

// Scroll moves the window down by a fraction of its height and waits for
// the page to settle.
func (s *Source) Scroll(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(`(f) => window.scrollBy(0, window.innerHeight * f)`, s.opts.ScrollFraction)
	if err != nil {
		return err
	}
	jitter := time.Duration(200+rand.Intn(300)) * time.Millisecond
	sleep(ctx, s.opts.Delay+jitter)
	return ctx.Err()
}

// Close releases the page, the browser and any launched process.
func (s *Source) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/scrollstitch/internal/archive"
	"github.com/kiesman99/scrollstitch/internal/browser"
	"github.com/kiesman99/scrollstitch/internal/capture"
	"github.com/kiesman99/scrollstitch/internal/stitch"
)

var captureCmd = &cobra.Command{
	Use:   "capture [url]",
	Short: "Capture a scrolling page in a browser and stitch it",
	Long: `Open a page in Chromium, take a screenshot, scroll, and repeat until the
page stops moving. The screenshots are then stitched into one image.

Examples:
  # Capture a page to a file
  scrollstitch capture https://example.com/timeline -o timeline.png

  # Capture only one element, hiding a sticky banner
  scrollstitch capture https://example.com --selector '#timeline' --hide '.cookie-banner' -o out.png

  # Log in with exported cookies and keep the raw screenshots
  scrollstitch capture https://example.com --cookies cookies.json --archive run.tar.zst -o out.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().String("selector", "", "clip screenshots to the element matching this CSS selector")
	captureCmd.Flags().StringSlice("hide", []string{}, "CSS selector(s) of overlays to hide before capturing")
	captureCmd.Flags().String("cookies", "", "JSON file with cookies to set before loading the page")
	captureCmd.Flags().Float64("scroll-fraction", 0.8, "share of the viewport height scrolled per step")
	captureCmd.Flags().Duration("delay", 2*time.Second, "settle time after each scroll")
	captureCmd.Flags().Int("max-tiles", capture.DefaultMaxTiles, "give up after this many screenshots")
	captureCmd.Flags().Bool("headless", true, "run the browser without a window")
	captureCmd.Flags().String("browser", "", "browser executable (default: downloaded Chromium)")
	captureCmd.Flags().String("control-url", "", "DevTools URL of an already running browser")
	captureCmd.Flags().String("archive", "", "also write the screenshots to this tile archive")

	viper.BindPFlag("capture.selector", captureCmd.Flags().Lookup("selector"))
	viper.BindPFlag("capture.hide", captureCmd.Flags().Lookup("hide"))
	viper.BindPFlag("capture.cookies", captureCmd.Flags().Lookup("cookies"))
	viper.BindPFlag("capture.scroll-fraction", captureCmd.Flags().Lookup("scroll-fraction"))
	viper.BindPFlag("capture.delay", captureCmd.Flags().Lookup("delay"))
	viper.BindPFlag("capture.max-tiles", captureCmd.Flags().Lookup("max-tiles"))
	viper.BindPFlag("capture.headless", captureCmd.Flags().Lookup("headless"))
	viper.BindPFlag("capture.browser", captureCmd.Flags().Lookup("browser"))
	viper.BindPFlag("capture.control-url", captureCmd.Flags().Lookup("control-url"))
	viper.BindPFlag("capture.archive", captureCmd.Flags().Lookup("archive"))
}

func runCapture(cmd *cobra.Command, args []string) error {
	url := viper.GetString("capture.url")
	if len(args) == 1 {
		url = args[0]
	}
	if url == "" {
		return fmt.Errorf("page URL is required")
	}

	output, format, err := outputTarget()
	if err != nil {
		return err
	}

	opts, err := engineOptions()
	if err != nil {
		return err
	}
	engine, err := stitch.NewStitcher(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "==URL: %s\n", url)

	src, err := browser.Open(ctx, browser.Options{
		URL:            url,
		Selector:       viper.GetString("capture.selector"),
		Hide:           viper.GetStringSlice("capture.hide"),
		Cookies:        viper.GetString("capture.cookies"),
		ScrollFraction: viper.GetFloat64("capture.scroll-fraction"),
		Delay:          viper.GetDuration("capture.delay"),
		Headless:       viper.GetBool("capture.headless"),
		Bin:            viper.GetString("capture.browser"),
		ControlURL:     viper.GetString("capture.control-url"),
	})
	if err != nil {
		return err
	}
	defer src.Close()

	seq, err := capture.Run(ctx, src, engine, capture.Options{
		MaxTiles: viper.GetInt("capture.max-tiles"),
		Logf: func(format string, args ...any) {
			fmt.Fprintf(stderr, format, args...)
		},
	})
	switch {
	case err == nil:
	case len(seq) > 0 && errors.Is(err, browser.ErrElementHidden):
		// The element ended before the page did.
		fmt.Fprintf(stderr, "==Termination: %s left the viewport\n", viper.GetString("capture.selector"))
	case len(seq) > 0 && (errors.Is(err, capture.ErrTooManyTiles) || errors.Is(err, context.Canceled)):
		// Keep what was captured so far.
		fmt.Fprintf(stderr, "Warning: %v, stitching %d tiles\n", err, len(seq))
	default:
		return err
	}

	if path := viper.GetString("capture.archive"); path != "" {
		m, err := archive.WriteFile(path, seq, url)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "==Archive: %s (%d tiles)\n", path, len(m.Tiles))
	}

	return stitchAndWrite(cmd, engine, seq, output, format)
}

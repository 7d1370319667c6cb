package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/scrollstitch/internal/archive"
	"github.com/kiesman99/scrollstitch/internal/stitch"
	"github.com/kiesman99/scrollstitch/pkg/tile"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scrollstitch [tile...]",
	Short: "Stitch screenshots of a scrolling page into one tall image",
	Long: `scrollstitch joins overlapping screenshots of a scrolling page into a single
image. The overlap between consecutive screenshots is detected from the pixels,
and trailing blackspace is trimmed from the result.

Tiles are read in the order given, from PNG, JPEG, BMP, TIFF or WebP files, or
from a tile archive written by the capture command.

Examples:
  # Stitch three screenshots
  scrollstitch 0.png 1.png 2.png -o page.png

  # Stitch an archive written by "scrollstitch capture --archive"
  scrollstitch --archive run.tar.zst -o page.png

  # Force the overlap instead of detecting it and write BMP
  scrollstitch --overlap 212 -f bmp *.png -o page.bmp

  # Capture a page in a browser and stitch it
  scrollstitch capture https://example.com/timeline -o timeline.png

  # Start HTTP server
  scrollstitch serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no input, show help
		if len(args) == 0 && viper.GetString("archive") == "" {
			return cmd.Help()
		}
		return runStitch(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.scrollstitch.yaml)")

	// Output options
	rootCmd.PersistentFlags().StringP("output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringP("format", "f", "png", "output format (png|bmp)")

	// Engine options
	rootCmd.PersistentFlags().String("termination", "bottom-band", "end-of-content policy (bottom-band|exact-frame)")
	rootCmd.PersistentFlags().Int("band-height", stitch.DefaultBandHeight, "bottom rows compared by the bottom-band policy")
	rootCmd.PersistentFlags().Int("min-run", 1, "consecutive rows an overlap must match")
	rootCmd.PersistentFlags().Bool("strict", false, "fail when tile pairs overlap differently")
	rootCmd.PersistentFlags().Int("threshold", stitch.DefaultThreshold, "per-channel level below which a pixel is dark")
	rootCmd.PersistentFlags().Float64("ratio", stitch.DefaultRatio, "share of dark pixels that makes a row blackspace")
	rootCmd.PersistentFlags().Int("overlap", -1, "force the overlap in rows (-1 detects it)")

	// Input options
	rootCmd.Flags().String("archive", "", "read tiles from a tile archive instead of files")

	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("stitch.termination", rootCmd.PersistentFlags().Lookup("termination"))
	viper.BindPFlag("stitch.band-height", rootCmd.PersistentFlags().Lookup("band-height"))
	viper.BindPFlag("stitch.min-run", rootCmd.PersistentFlags().Lookup("min-run"))
	viper.BindPFlag("stitch.strict", rootCmd.PersistentFlags().Lookup("strict"))
	viper.BindPFlag("stitch.threshold", rootCmd.PersistentFlags().Lookup("threshold"))
	viper.BindPFlag("stitch.ratio", rootCmd.PersistentFlags().Lookup("ratio"))
	viper.BindPFlag("stitch.overlap", rootCmd.PersistentFlags().Lookup("overlap"))
	viper.BindPFlag("archive", rootCmd.Flags().Lookup("archive"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".scrollstitch" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".scrollstitch")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineOptions builds the stitch options from flags and config.
func engineOptions() (*stitch.Options, error) {
	policy, err := stitch.ParsePolicy(viper.GetString("stitch.termination"))
	if err != nil {
		return nil, err
	}

	threshold := viper.GetInt("stitch.threshold")
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("threshold %d out of range 0-255", threshold)
	}

	opts := &stitch.Options{
		Termination: policy,
		BandHeight:  viper.GetInt("stitch.band-height"),
		MinRun:      viper.GetInt("stitch.min-run"),
		Strict:      viper.GetBool("stitch.strict"),
		Overlap:     viper.GetInt("stitch.overlap"),
		Threshold:   uint8(threshold),
		Ratio:       viper.GetFloat64("stitch.ratio"),
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// outputTarget resolves the output path and format, refusing to write an
// image to a terminal.
func outputTarget() (string, tile.Format, error) {
	format, err := tile.ParseFormat(viper.GetString("format"))
	if err != nil {
		return "", 0, err
	}

	output := viper.GetString("output")
	if output == "" {
		if stat, _ := os.Stdout.Stat(); stat != nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			return "", 0, fmt.Errorf("didn't specify output file and standard output is a terminal")
		}
	}
	return output, format, nil
}

func runStitch(cmd *cobra.Command, args []string) error {
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

	seq, err := loadTiles(cmd, viper.GetString("archive"), args)
	if err != nil {
		return err
	}

	return stitchAndWrite(cmd, engine, seq, output, format)
}

// loadTiles reads the input sequence from an archive or from files.
func loadTiles(cmd *cobra.Command, path string, args []string) ([]*tile.Tile, error) {
	if path != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("tile files and --archive are mutually exclusive")
		}
		m, seq, err := archive.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if m.Source != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "==Source: %s\n", m.Source)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "==Archive: %s (%s)\n", path, m.Created)
		return seq, nil
	}

	seq := make([]*tile.Tile, 0, len(args))
	for _, name := range args {
		t, err := tile.ReadFile(name)
		if err != nil {
			return nil, err
		}
		seq = append(seq, t)
	}
	return seq, nil
}

// stitchAndWrite composes seq and writes the result.
func stitchAndWrite(cmd *cobra.Command, engine *stitch.Stitcher, seq []*tile.Tile, output string, format tile.Format) error {
	res, err := engine.Stitch(seq)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "==Tiles: %d\n", res.Tiles)
	fmt.Fprintf(cmd.ErrOrStderr(), "==Overlap: %d\n", res.Overlap)
	fmt.Fprintf(cmd.ErrOrStderr(), "==Canvas: %dx%d\n", res.Image.Rect.Dx(), res.Image.Rect.Dy())

	return tile.Write(output, res.Image, format)
}

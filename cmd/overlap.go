package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/scrollstitch/internal/stitch"
)

var overlapCmd = &cobra.Command{
	Use:   "overlap top bottom [tile...]",
	Short: "Print the detected overlap between tiles",
	Long: `Print the number of rows shared by the bottom of one tile and the top of
the next. With --report every consecutive pair of the sequence is measured and
the mean, standard deviation and pairs that drift from the first are listed.

Examples:
  scrollstitch overlap 0.png 1.png
  scrollstitch overlap --report *.png
  scrollstitch overlap --report --archive run.tar.zst`,
	RunE: runOverlap,
}

func init() {
	rootCmd.AddCommand(overlapCmd)

	overlapCmd.Flags().Bool("report", false, "measure every tile pair of the sequence")
	overlapCmd.Flags().String("archive", "", "read tiles from a tile archive instead of files")

	viper.BindPFlag("overlap.report", overlapCmd.Flags().Lookup("report"))
	viper.BindPFlag("overlap.archive", overlapCmd.Flags().Lookup("archive"))
}

func runOverlap(cmd *cobra.Command, args []string) error {
	report := viper.GetBool("overlap.report")
	path := viper.GetString("overlap.archive")

	if path == "" {
		if report && len(args) < 2 {
			return fmt.Errorf("need at least two tiles, got %d", len(args))
		}
		if !report && len(args) != 2 {
			return fmt.Errorf("need exactly two tiles, got %d", len(args))
		}
	}

	seq, err := loadTiles(cmd, path, args)
	if err != nil {
		return err
	}
	if len(seq) < 2 {
		return fmt.Errorf("need at least two tiles, got %d", len(seq))
	}

	opts, err := engineOptions()
	if err != nil {
		return err
	}

	if !report {
		overlap, err := stitch.FindOverlap(seq[0], seq[1], opts.MinRun)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), overlap)
		return nil
	}

	engine, err := stitch.NewStitcher(opts)
	if err != nil {
		return err
	}
	rep, err := engine.Report(seq)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, o := range rep.Overlaps {
		fmt.Fprintf(out, "%d-%d\t%d\n", i, i+1, o)
	}
	fmt.Fprintf(out, "mean\t%.2f\n", rep.Mean)
	fmt.Fprintf(out, "stddev\t%.2f\n", rep.StdDev)
	if len(rep.Drift) > 0 {
		fmt.Fprintf(out, "drift\t%v\n", rep.Drift)
	}
	return nil
}

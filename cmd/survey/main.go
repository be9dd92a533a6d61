package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/stop-survey/internal/domain/frame"
	"github.com/yanqian/stop-survey/internal/domain/survey"
)

const (
	Version = "0.1.0"
	appName = "stop-survey"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type runFlags struct {
	stopsConfigPath string
	quality         string
	sleepSeconds    float64
	sleepSet        bool
	outputPath      string
}

func rootCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Run a transit stop amenity survey",
		Long: `Fetches one camera frame per configured stop, asks the vision model which
amenities are visible, and writes the aggregate dashboard JSON.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.sleepSet = cmd.Flags().Changed("sleep")
			opts, err := flags.runOptions()
			if err != nil {
				return err
			}
			return runSurvey(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&flags.stopsConfigPath, "config", "", "Path to stops_config.json")
	cmd.Flags().StringVar(&flags.quality, "quality", "", "Frame quality (high, medium, low, very_low)")
	cmd.Flags().Float64Var(&flags.sleepSeconds, "sleep", 2, "Seconds between vision calls")
	cmd.Flags().StringVar(&flags.outputPath, "output", "", "Output JSON path")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Serve the dashboard data and survey API over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, cleanup, err := initializeApp()
			if err != nil {
				return fmt.Errorf("wire application: %w", err)
			}
			defer cleanup()

			return app.Serve(ctx)
		},
	}
}

func runSurvey(cmd *cobra.Command, opts survey.RunOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := initializeApp()
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	defer cleanup()

	path, err := app.RunSurvey(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote survey output to %s\n", path)
	return nil
}

// runOptions validates the flags. Unset flags leave the configured defaults in place.
func (f runFlags) runOptions() (survey.RunOptions, error) {
	opts := survey.RunOptions{
		StopsConfigPath: f.stopsConfigPath,
		OutputPath:      f.outputPath,
	}
	if f.quality != "" {
		q, ok := frame.ParseQuality(f.quality)
		if !ok {
			return survey.RunOptions{}, fmt.Errorf("invalid --quality %q: choose high, medium, low or very_low", f.quality)
		}
		opts.Quality = q
	}
	if f.sleepSet {
		if f.sleepSeconds < 0 || math.IsNaN(f.sleepSeconds) || math.IsInf(f.sleepSeconds, 0) {
			return survey.RunOptions{}, fmt.Errorf("invalid --sleep %v: must be a non-negative number of seconds", f.sleepSeconds)
		}
		delay := time.Duration(f.sleepSeconds * float64(time.Second))
		opts.InterCallDelay = &delay
	}
	return opts, nil
}


package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/stop-survey/internal/domain/frame"
)

func TestRunOptionsDefaults(t *testing.T) {
	opts, err := runFlags{sleepSeconds: 2}.runOptions()
	require.NoError(t, err)
	require.Empty(t, opts.Quality)
	require.Nil(t, opts.InterCallDelay)
	require.Empty(t, opts.StopsConfigPath)
	require.Empty(t, opts.OutputPath)
}

func TestRunOptionsFromFlags(t *testing.T) {
	opts, err := runFlags{
		stopsConfigPath: "stops.json",
		quality:         "very_low",
		sleepSeconds:    0.5,
		sleepSet:        true,
		outputPath:      "out.json",
	}.runOptions()
	require.NoError(t, err)
	require.Equal(t, "stops.json", opts.StopsConfigPath)
	require.Equal(t, frame.QualityVeryLow, opts.Quality)
	require.Equal(t, 500*time.Millisecond, *opts.InterCallDelay)
	require.Equal(t, "out.json", opts.OutputPath)

	opts, err = runFlags{sleepSet: true}.runOptions()
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), *opts.InterCallDelay)
}

func TestRunOptionsRejectsBadFlags(t *testing.T) {
	_, err := runFlags{quality: "ultra"}.runOptions()
	require.ErrorContains(t, err, "--quality")

	_, err = runFlags{sleepSeconds: -1, sleepSet: true}.runOptions()
	require.ErrorContains(t, err, "--sleep")
}

func TestRootRejectsInvalidQualityBeforeWiring(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--quality", "ultra"})
	require.ErrorContains(t, cmd.Execute(), "invalid --quality")
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "stop-survey version 0.1.0\n", out.String())
}

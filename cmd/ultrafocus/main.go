// Package main implements ultrafocus, a focus-mode tool for Windows.
//
// ultrafocus finds the window whose title contains a marker (a LeetCode tab
// by default), minimizes everything else, makes it full screen and then
// filters all desktop input so that only letters, digits, shift and clicks
// inside that window get through.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ultrafocus/internal/config"
	"ultrafocus/internal/desktop"
)

var version = "dev"

// Global flags
var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ultrafocus",
		Short: "Lock the desktop onto a single window",
		Long: `ultrafocus - single-window focus mode

Opens a small window with a "Start Focus" button. On click, the window whose
title contains the configured marker is brought to the front and made full
screen, every other window is minimized, and system-wide input filters
suppress everything except letters, digits, shift and clicks on that window.`,
		Example: `  # Open the focus window
  ultrafocus

  # Start focus mode without a window, until Ctrl+C
  ultrafocus start

  # Write the default configuration file
  ultrafocus config --write`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start focus mode headless and keep it until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd)
		},
	}

	var writeDefault bool
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd, writeDefault)
		},
	}
	configCmd.Flags().BoolVar(&writeDefault, "write", false, "Write the default configuration to the config path")

	rootCmd.AddCommand(startCmd, configCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runStart(cmd *cobra.Command) error {
	a, err := newFocusApp("cli")
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if !desktop.IsElevated() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: not running as administrator; input to elevated windows is not filtered")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.start(ctx)
	a.ch.RequestFocus()

	res, err := a.ch.WaitResult(ctx)
	if err != nil {
		return nil
	}
	a.observe(res)
	if !res.OK() {
		return errors.New(res.Text)
	}
	fmt.Fprintln(out, res.Text)
	fmt.Fprintln(out, "Press Ctrl+C to leave focus mode.")

	select {
	case <-ctx.Done():
	case <-a.manager.Done():
	}
	a.manager.Stop()

	st := a.manager.Stats()
	fmt.Fprintf(out, "Focus mode ended: %d keys and %d clicks suppressed.\n", st.KeysSuppressed, st.MouseSuppressed)
	return nil
}

func runConfig(cmd *cobra.Command, write bool) error {
	path := configPath
	if path == "" {
		path = config.FindConfigFile()
	}

	if write {
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	data, err := config.Encode(cfg, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Config file: %s\n", path)
	cmd.OutOrStdout().Write(data)
	return nil
}

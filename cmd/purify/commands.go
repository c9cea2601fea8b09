package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/purify/internal/app"
	"github.com/agenthands/purify/internal/config"
	"github.com/agenthands/purify/internal/core"
	"github.com/agenthands/purify/internal/logger"
	"github.com/agenthands/purify/internal/server"
)

type rootOptions struct {
	configPath string
	threshold  float64
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "purify",
		Short:        "Detect abusive text and rewrite it into a softer sentence",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.toml (default: $CONFIG_PATH or config/config.toml)")
	root.PersistentFlags().Float64VarP(&opts.threshold, "threshold", "t", -1, "decision threshold in [0,1] (default: from config)")

	root.AddCommand(
		newServeCmd(opts),
		newBatchCmd(opts, "detect", "Classify each argument and print the detections", false),
		newBatchCmd(opts, "refine", "Classify each argument and rewrite the abusive ones", true),
	)
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(opts.configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx, cfg)
		},
	}
}

func newBatchCmd(opts *rootOptions, use, short string, refine bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <text>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(opts.configPath)
			if err != nil {
				return err
			}
			log := logger.New(config.LogConfig{Level: "warn", Format: "console"})
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			deps, err := server.Build(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeLogged(log, deps)

			popts := core.ProcessOptions{Refine: refine}
			if opts.threshold >= 0 {
				popts.Threshold = &opts.threshold
			}

			result, err := deps.Engine.Process(ctx, args, popts)
			if err != nil {
				return err
			}

			var out any = result.Detections
			if refine {
				out = result.Refinements
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
}

func closeLogged(log *zap.Logger, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warn("Failed to close dependencies", zap.Error(err))
	}
}

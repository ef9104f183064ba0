package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docforge/internal/build"
	"docforge/internal/config"
)

var buildStrict bool

// buildCmd runs the full pipeline: parse, validate, render, index.
var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Build the documentation site",
	Long: `Parses every source, validates it, renders the HTML site into the
configured output directory, and refreshes the search index.

Errors always fail the build; warnings fail it only with --strict.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildStrict, "strict", false, "treat warnings as failures")
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := resolveRoot(args)
	cfg, err := config.LoadProject(root)
	if err != nil {
		return err
	}

	res, err := build.Run(cmd.Context(), build.Options{
		Root:   root,
		Cfg:    cfg,
		Strict: buildStrict,
	})
	if err != nil {
		return err
	}

	printDiagnostics(res.Diagnostics)
	logger.Info("build finished",
		zap.String("build_id", res.BuildID),
		zap.Int("pages", res.Pages),
		zap.Duration("parse", res.Timings.Parse),
		zap.Duration("validate", res.Timings.Validate),
		zap.Duration("render", res.Timings.Render),
		zap.Duration("index", res.Timings.Index),
	)
	fmt.Printf("%d pages written to %s\n", res.Pages, cfg.Output.Dir)
	printSummary(res.Diagnostics, res.Failed)
	if res.Failed {
		return fmt.Errorf("build failed validation")
	}
	return nil
}

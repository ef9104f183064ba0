package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docforge/internal/build"
	"docforge/internal/config"
)

var checkStrict bool

// checkCmd validates without writing anything: no HTML, no index update.
var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Validate sources without building",
	Long: `Parses and validates every source:

  - image targets exist
  - code blocks parse in their stated language
  - cross-references resolve
  - section structure is sound

Nothing is written. Use this as a fast pre-commit or CI gate.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "treat warnings as failures")
}

func runCheck(cmd *cobra.Command, args []string) error {
	root := resolveRoot(args)
	cfg, err := config.LoadProject(root)
	if err != nil {
		return err
	}

	res, err := build.Run(cmd.Context(), build.Options{
		Root:       root,
		Cfg:        cfg,
		Strict:     checkStrict,
		SkipRender: true,
		SkipIndex:  true,
	})
	if err != nil {
		return err
	}

	printDiagnostics(res.Diagnostics)
	printSummary(res.Diagnostics, res.Failed)
	if res.Failed {
		return fmt.Errorf("validation failed")
	}
	return nil
}

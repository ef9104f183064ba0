package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"docforge/internal/parser"
	"docforge/internal/render"
)

var previewWidth int

// previewCmd renders a single source file to the terminal.
var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Render one source file in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().IntVar(&previewWidth, "width", 100, "wrap width")
}

func runPreview(cmd *cobra.Command, args []string) error {
	path := args[0]
	doc, diags, err := parser.ParseFile(path, filepath.Base(path))
	if err != nil {
		return err
	}

	out, err := render.RenderTerm(doc, previewWidth)
	if err != nil {
		return err
	}
	fmt.Print(out)

	if len(diags) > 0 {
		fmt.Println()
		printDiagnostics(diags)
	}
	return nil
}

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"docforge/internal/build"
	"docforge/internal/config"
	"docforge/internal/index"
)

// statsCmd reports project and index statistics.
var statsCmd = &cobra.Command{
	Use:   "stats [dir]",
	Short: "Show project and index statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	root := resolveRoot(args)
	cfg, err := config.LoadProject(root)
	if err != nil {
		return err
	}

	sources, err := build.ScanSources(root, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Project: %s\n", cfg.Name)
	fmt.Printf("Sources: %d under %s\n", len(sources), cfg.Source.Dir)

	store, err := index.Open(filepath.Join(root, cfg.Index.Path))
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Index:   %d documents, %d sections (%s)\n", st.Documents, st.Sections, st.Path)
	if st.Documents < len(sources) {
		fmt.Println(mutedStyle.Render("index is behind the source tree; run `docforge build`"))
	}
	return nil
}

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"docforge/internal/config"
	"docforge/internal/index"
)

var searchLimit int

// searchCmd queries the section index from the command line.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the documentation index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadProject(projectRoot)
	if err != nil {
		return err
	}

	store, err := index.Open(filepath.Join(projectRoot, cfg.Index.Path))
	if err != nil {
		return err
	}
	defer store.Close()

	query := strings.Join(args, " ")
	results, err := store.Search(query, searchLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println(mutedStyle.Render("no results for ") + query)
		return nil
	}

	for _, r := range results {
		fmt.Printf("%s %s\n", successStyle.Render(r.Title), mutedStyle.Render(fmt.Sprintf("%s#%s", r.Doc, r.Anchor)))
		if r.Snippet != "" {
			fmt.Println("  " + r.Snippet)
		}
	}
	return nil
}

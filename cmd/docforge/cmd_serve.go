package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docforge/internal/build"
	"docforge/internal/config"
	"docforge/internal/index"
	"docforge/internal/serve"
	"docforge/internal/watch"
)

// serveCmd builds once, then watches the sources and serves the site with
// live reload.
var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Serve the site locally with live reload",
	Long: `Builds the site, starts the preview server, and rebuilds whenever a
source or static file changes. Open pages reload themselves over an SSE
stream. Validation findings from rebuilds are printed but never stop the
server.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root := resolveRoot(args)
	cfg, err := config.LoadProject(root)
	if err != nil {
		return err
	}

	res, err := build.Run(ctx, build.Options{Root: root, Cfg: cfg})
	if err != nil {
		return err
	}
	printDiagnostics(res.Diagnostics)
	printSummary(res.Diagnostics, false)

	store, err := index.Open(filepath.Join(root, cfg.Index.Path))
	if err != nil {
		return err
	}
	defer store.Close()

	server := serve.New(cfg, root, store, logger)

	rebuild := func(path string) {
		logger.Info("source changed, rebuilding", zap.String("path", path))
		res, err := build.Run(ctx, build.Options{Root: root, Cfg: cfg})
		if err != nil {
			logger.Error("rebuild failed", zap.Error(err))
			return
		}
		printDiagnostics(res.Diagnostics)
		server.NotifyReload()
	}

	watcher, err := watch.New([]string{filepath.Join(root, cfg.Source.Dir)}, rebuild)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	return server.Run(ctx)
}

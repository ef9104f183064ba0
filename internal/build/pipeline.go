// Package build orchestrates the docforge pipeline: scan sources, parse them
// into the document model, validate, render HTML, and refresh the search
// index. Each run gets a build ID and per-stage timings.
package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docforge/internal/config"
	"docforge/internal/document"
	"docforge/internal/index"
	"docforge/internal/logging"
	"docforge/internal/parser"
	"docforge/internal/render"
	"docforge/internal/validate"
)

// Options selects what the pipeline runs.
type Options struct {
	Root       string
	Cfg        *config.Config
	Strict     bool
	SkipRender bool // check-only runs stop after validation
	SkipIndex  bool
}

// StageTimings records how long each pipeline stage took.
type StageTimings struct {
	Scan     time.Duration
	Parse    time.Duration
	Validate time.Duration
	Render   time.Duration
	Index    time.Duration
}

// Result is the outcome of one pipeline run.
type Result struct {
	BuildID     string
	Project     *document.Project
	Diagnostics []document.Diagnostic
	Pages       int
	Timings     StageTimings
	Failed      bool
}

// Run executes the pipeline. An error means the pipeline itself broke (I/O,
// database); documentation problems land in Result.Diagnostics instead.
func Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{BuildID: uuid.NewString()}
	logging.Boot("build %s starting in %s", res.BuildID, opts.Root)

	// Scan.
	start := time.Now()
	sources, err := ScanSources(opts.Root, opts.Cfg)
	if err != nil {
		return nil, fmt.Errorf("scan sources: %w", err)
	}
	res.Timings.Scan = time.Since(start)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources found under %s", filepath.Join(opts.Root, opts.Cfg.Source.Dir))
	}

	// Parse.
	start = time.Now()
	project, parseDiags, err := parseAll(ctx, opts.Root, sources, opts.Cfg)
	if err != nil {
		return nil, err
	}
	res.Project = project
	res.Diagnostics = append(res.Diagnostics, parseDiags...)
	res.Timings.Parse = time.Since(start)

	// Validate.
	start = time.Now()
	engine := validate.NewEngine(opts.Cfg)
	diags, err := engine.Run(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.Timings.Validate = time.Since(start)

	// Render.
	if !opts.SkipRender {
		start = time.Now()
		pages, err := renderSite(opts.Root, opts.Cfg, project)
		if err != nil {
			return nil, err
		}
		res.Pages = len(pages)
		res.Diagnostics = append(res.Diagnostics, render.AuditLinks(pages)...)
		res.Timings.Render = time.Since(start)
	}

	// Index.
	if !opts.SkipIndex {
		start = time.Now()
		store, err := index.Open(filepath.Join(opts.Root, opts.Cfg.Index.Path))
		if err != nil {
			return nil, err
		}
		if err := store.IndexProject(project); err != nil {
			store.Close()
			return nil, fmt.Errorf("index project: %w", err)
		}
		store.Close()
		res.Timings.Index = time.Since(start)
	}

	res.Failed = validate.Failed(res.Diagnostics, opts.Strict || opts.Cfg.Validate.Strict)
	errs, warns, _ := document.CountBySeverity(res.Diagnostics)
	logging.Boot("build %s finished: %d pages, %d errors, %d warnings", res.BuildID, res.Pages, errs, warns)
	return res, nil
}

// parseAll parses every source concurrently and assembles the project with
// documents in scan order.
func parseAll(ctx context.Context, root string, sources []string, cfg *config.Config) (*document.Project, []document.Diagnostic, error) {
	timer := logging.StartTimer(logging.CategoryParse, "parseAll")
	defer timer.Stop()

	docs := make([]*document.Document, len(sources))
	diagLists := make([][]document.Diagnostic, len(sources))

	srcRoot := filepath.Join(root, cfg.Source.Dir)
	workers := cfg.Validate.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rel := range sources {
		i, rel := i, rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, diags, err := parser.ParseFile(filepath.Join(srcRoot, filepath.FromSlash(rel)), rel)
			if err != nil {
				return err
			}
			docs[i] = doc
			diagLists[i] = diags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Project root is the source root: document paths and image targets
	// resolve against it.
	project := &document.Project{Root: srcRoot, Documents: docs}
	var all []document.Diagnostic
	for _, l := range diagLists {
		all = append(all, l...)
	}
	return project, all, nil
}

// renderSite writes the HTML pages and copies non-source assets (images and
// the like) into the output tree, preserving source-relative layout.
func renderSite(root string, cfg *config.Config, project *document.Project) (map[string][]byte, error) {
	renderer, err := render.New(cfg)
	if err != nil {
		return nil, err
	}
	pages, err := renderer.RenderProject(project)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(root, cfg.Output.Dir)
	for rel, content := range pages {
		target := filepath.Join(outDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(target, content, 0644); err != nil {
			return nil, fmt.Errorf("write page %s: %w", rel, err)
		}
	}

	if err := copyAssets(root, cfg); err != nil {
		return nil, err
	}
	return pages, nil
}

// copyAssets mirrors every non-source file from the source tree into the
// output tree so document-relative image references keep working.
func copyAssets(root string, cfg *config.Config) error {
	srcRoot := filepath.Join(root, cfg.Source.Dir)
	outDir := filepath.Join(root, cfg.Output.Dir)

	return filepath.WalkDir(srcRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, rerr := filepath.Rel(srcRoot, path)
		if rerr != nil {
			return rerr
		}
		relSlash := filepath.ToSlash(filepath.Join(cfg.Source.Dir, rel))
		if excluded(relSlash, cfg.Source.Exclude) {
			return nil
		}
		for _, ext := range cfg.Source.Extensions {
			if strings.HasSuffix(path, ext) {
				return nil
			}
		}
		target := filepath.Join(outDir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

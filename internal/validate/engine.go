// Package validate runs the docforge validation checks against a parsed
// project: image targets exist, code blocks are well-formed in their stated
// language, cross-references resolve, and the section structure is sane.
//
// Checks accumulate diagnostics and never abort the run; documents are
// validated concurrently with a bounded worker count.
package validate

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"docforge/internal/config"
	"docforge/internal/document"
	"docforge/internal/logging"
)

// Check validates one document in the context of the whole project.
type Check interface {
	Name() string
	Run(ctx context.Context, p *document.Project, d *document.Document) []document.Diagnostic
}

// Engine holds the configured check set.
type Engine struct {
	cfg    *config.Config
	checks []Check

	mu    sync.Mutex
	diags []document.Diagnostic
}

// NewEngine builds an engine with the full default check set.
func NewEngine(cfg *config.Config) *Engine {
	// The static dir is configured project-relative; image resolution works
	// source-relative, like document paths.
	staticRel := cfg.Source.StaticDir
	if r, err := filepath.Rel(cfg.Source.Dir, cfg.Source.StaticDir); err == nil && !strings.HasPrefix(r, "..") {
		staticRel = r
	}
	return &Engine{
		cfg: cfg,
		checks: []Check{
			&ImageCheck{StaticRoot: staticRel},
			NewCodeBlockCheck(cfg),
			&XrefCheck{},
			&StructureCheck{},
		},
	}
}

// Run validates every document in the project and returns all diagnostics
// sorted by document, then line. Project-level findings (duplicate anchors)
// are included.
func (e *Engine) Run(ctx context.Context, p *document.Project) ([]document.Diagnostic, error) {
	timer := logging.StartTimer(logging.CategoryValidate, "Engine.Run")
	defer timer.Stop()

	e.diags = nil

	// Duplicate anchors are a project-level property, checked once up front.
	for _, dup := range p.BuildAnchorTable() {
		e.report(document.Diagnostic{
			Severity: document.SeverityError,
			Check:    "xrefs",
			Doc:      dup.Anchor.Doc,
			Line:     dup.Anchor.Line,
			Message: fmt.Sprintf("duplicate anchor %q (first defined at %s:%d)",
				dup.Anchor.Label, dup.First.Doc, dup.First.Line),
		})
	}

	workers := e.cfg.Validate.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, d := range p.Documents {
		d := d
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, c := range e.checks {
				found := c.Run(ctx, p, d)
				if len(found) > 0 {
					logging.ValidateDebug("%s: check %s produced %d diagnostics", d.Path, c.Name(), len(found))
				}
				e.report(found...)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(e.diags, func(i, j int) bool {
		if e.diags[i].Doc != e.diags[j].Doc {
			return e.diags[i].Doc < e.diags[j].Doc
		}
		return e.diags[i].Line < e.diags[j].Line
	})
	errs, warns, _ := document.CountBySeverity(e.diags)
	logging.Validate("validated %d documents: %d errors, %d warnings", len(p.Documents), errs, warns)
	return e.diags, nil
}

func (e *Engine) report(diags ...document.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	e.mu.Lock()
	e.diags = append(e.diags, diags...)
	e.mu.Unlock()
}

// Failed decides the exit status for a diagnostic set: errors always fail,
// warnings fail only in strict mode.
func Failed(diags []document.Diagnostic, strict bool) bool {
	errs, warns, _ := document.CountBySeverity(diags)
	if errs > 0 {
		return true
	}
	return strict && warns > 0
}

package validate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docforge/internal/config"
	"docforge/internal/document"
	"docforge/internal/parser"
)

// buildProject parses sources laid out under a temp source root.
func buildProject(t *testing.T, files map[string]string) (*document.Project, string) {
	t.Helper()
	root := t.TempDir()
	p := &document.Project{Root: root}
	for rel, src := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(src), 0644))
		doc, _ := parser.Parse([]byte(src), rel)
		p.Documents = append(p.Documents, doc)
	}
	return p, root
}

func diagsFor(diags []document.Diagnostic, check string) []document.Diagnostic {
	var out []document.Diagnostic
	for _, d := range diags {
		if d.Check == check {
			out = append(out, d)
		}
	}
	return out
}

func TestImageCheck(t *testing.T) {
	p, root := buildProject(t, map[string]string{
		"page.rst": "Title\n=====\n\n.. image:: images/present.png\n   :alt: ok\n\n.. image:: images/missing.png\n   :alt: gone\n",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "present.png"), []byte{0x89}, 0644))

	check := &ImageCheck{}
	diags := check.Run(context.Background(), p, p.Documents[0])

	require.Len(t, diags, 1)
	assert.Equal(t, document.SeverityError, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "missing.png")
}

func TestImageCheck_StaticRootFallback(t *testing.T) {
	p, root := buildProject(t, map[string]string{
		"page.rst": "Title\n=====\n\n.. image:: shared.png\n   :alt: shared\n",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "_static"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "_static", "shared.png"), []byte{1}, 0644))

	check := &ImageCheck{StaticRoot: "_static"}
	diags := check.Run(context.Background(), p, p.Documents[0])
	assert.Empty(t, diags)
}

func TestImageCheck_MissingAltWarns(t *testing.T) {
	p, root := buildProject(t, map[string]string{
		"page.rst": "Title\n=====\n\n.. image:: pic.png\n",
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "pic.png"), []byte{1}, 0644))

	diags := (&ImageCheck{}).Run(context.Background(), p, p.Documents[0])
	require.Len(t, diags, 1)
	assert.Equal(t, document.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, ":alt:")
}

func TestCodeBlockCheck_TreeSitter(t *testing.T) {
	cfg := config.DefaultConfig()
	p, _ := buildProject(t, map[string]string{
		"good.rst": "Title\n=====\n\n.. code-block:: go\n\n   package main\n\n   func main() {}\n",
		"bad.rst":  "Title\n=====\n\n.. code-block:: go\n\n   func main( {\n",
	})

	check := NewCodeBlockCheck(cfg)
	good := check.Run(context.Background(), p, p.Documents[0])
	bad := check.Run(context.Background(), p, p.Documents[1])
	if p.Documents[0].Path == "bad.rst" {
		good, bad = bad, good
	}

	assert.Empty(t, good)
	require.Len(t, bad, 1)
	assert.Equal(t, document.SeverityError, bad[0].Severity)
	assert.Contains(t, bad[0].Message, "malformed go code block")
}

func TestCodeBlockCheck_PythonSnippet(t *testing.T) {
	cfg := config.DefaultConfig()
	p, _ := buildProject(t, map[string]string{
		"page.rst": "Title\n=====\n\n.. code-block:: python\n\n   from django.contrib import admin\n\n   admin.site.register(Question)\n",
	})
	diags := NewCodeBlockCheck(cfg).Run(context.Background(), p, p.Documents[0])
	assert.Empty(t, diags)
}

func TestCodeBlockCheck_UnknownLanguageWarns(t *testing.T) {
	cfg := config.DefaultConfig()
	p, _ := buildProject(t, map[string]string{
		"page.rst": "Title\n=====\n\n.. code-block:: klingon\n\n   nuqneH\n",
	})
	diags := NewCodeBlockCheck(cfg).Run(context.Background(), p, p.Documents[0])
	require.Len(t, diags, 1)
	assert.Equal(t, document.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "klingon")
}

func TestCodeBlockCheck_ExemptLanguages(t *testing.T) {
	cfg := config.DefaultConfig()
	p, _ := buildProject(t, map[string]string{
		"page.rst": "Title\n=====\n\n.. code-block:: console\n\n   $ python manage.py runserver\n",
	})
	diags := NewCodeBlockCheck(cfg).Run(context.Background(), p, p.Documents[0])
	assert.Empty(t, diags)
}

func TestXrefCheck(t *testing.T) {
	p, _ := buildProject(t, map[string]string{
		"a.rst": "Alpha\n=====\n\nSee :ref:`beta-section` and :ref:`nowhere`.\n",
		"b.rst": "Beta section\n============\n\nBody.\n",
	})
	p.BuildAnchorTable()

	var target *document.Document
	for _, d := range p.Documents {
		if d.Path == "a.rst" {
			target = d
		}
	}
	require.NotNil(t, target)

	diags := (&XrefCheck{}).Run(context.Background(), p, target)
	errs := diagsFor(diags, "xrefs")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "nowhere")
}

func TestXrefCheck_UnreferencedTargetIsInfo(t *testing.T) {
	p, _ := buildProject(t, map[string]string{
		"a.rst": "Alpha\n=====\n\n.. _lonely:\n\nSub\n---\n\nBody.\n",
	})
	p.BuildAnchorTable()

	diags := (&XrefCheck{}).Run(context.Background(), p, p.Documents[0])
	require.Len(t, diags, 1)
	assert.Equal(t, document.SeverityInfo, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "lonely")
}

func TestStructureCheck(t *testing.T) {
	p, _ := buildProject(t, map[string]string{
		"a.rst": "Top\n===\n\nA\n--\n\ntext\n\nA\n--\n\ntext\n\nEmpty\n-----\n",
	})
	diags := (&StructureCheck{}).Run(context.Background(), p, p.Documents[0])

	var dupFound, emptyFound bool
	for _, d := range diags {
		if d.Severity != document.SeverityWarning {
			t.Errorf("unexpected severity %s", d.Severity)
		}
		switch {
		case strings.Contains(d.Message, "duplicate sibling"):
			dupFound = true
		case strings.Contains(d.Message, "is empty"):
			emptyFound = true
		}
	}
	assert.True(t, dupFound, "expected duplicate sibling warning: %v", diags)
	assert.True(t, emptyFound, "expected empty section warning: %v", diags)
}

func TestEngine_RunAggregatesAndSorts(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Source.Dir = "."
	cfg.Source.StaticDir = "_static"
	p, _ := buildProject(t, map[string]string{
		"a.rst": "Alpha\n=====\n\nSee :ref:`missing-ref`.\n\n.. image:: gone.png\n   :alt: x\n",
		"b.rst": "Alpha\n=====\n\nBody.\n",
	})

	engine := NewEngine(cfg)
	diags, err := engine.Run(context.Background(), p)
	require.NoError(t, err)

	// Duplicate anchor (both pages titled Alpha), unresolved ref, missing image.
	assert.NotEmpty(t, diagsFor(diags, "xrefs"))
	assert.NotEmpty(t, diagsFor(diags, "images"))
	for i := 1; i < len(diags); i++ {
		if diags[i-1].Doc == diags[i].Doc {
			assert.LessOrEqual(t, diags[i-1].Line, diags[i].Line, "diagnostics must be sorted by line")
		} else {
			assert.Less(t, diags[i-1].Doc, diags[i].Doc, "diagnostics must be sorted by doc")
		}
	}
}

func TestFailed(t *testing.T) {
	warn := []document.Diagnostic{{Severity: document.SeverityWarning}}
	errd := []document.Diagnostic{{Severity: document.SeverityError}}

	assert.False(t, Failed(nil, false))
	assert.False(t, Failed(warn, false))
	assert.True(t, Failed(warn, true))
	assert.True(t, Failed(errd, false))
}

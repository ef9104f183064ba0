package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docforge/internal/config"
	"docforge/internal/document"
	"docforge/internal/parser"
)

const pageSource = `Customizing the admin form
==========================

Reorder the fields on the edit form.

.. _field-lists:

Field lists
-----------

See ` + ":ref:`field-lists`" + ` for a self reference.

.. code-block:: python

   admin.site.register(Question)

.. note::

   Admin options live on the ModelAdmin class.
`

func renderFixture(t *testing.T, files map[string]string) (*document.Project, map[string][]byte) {
	t.Helper()
	p := &document.Project{}
	for path, src := range files {
		doc, _ := parser.Parse([]byte(src), path)
		p.Documents = append(p.Documents, doc)
	}
	p.BuildAnchorTable()

	r, err := New(config.DefaultConfig())
	require.NoError(t, err)
	pages, err := r.RenderProject(p)
	require.NoError(t, err)
	return p, pages
}

func TestPagePath(t *testing.T) {
	assert.Equal(t, "intro.html", PagePath("intro.rst"))
	assert.Equal(t, "guide/admin.html", PagePath("guide/admin.rst"))
	assert.Equal(t, "notes.html", PagePath("notes.txt"))
}

func TestRenderProject(t *testing.T) {
	_, pages := renderFixture(t, map[string]string{"form.rst": pageSource})

	require.Contains(t, pages, "form.html")
	require.Contains(t, pages, "index.html")

	html := string(pages["form.html"])
	assert.Contains(t, html, "<h1>Customizing the admin form</h1>")
	assert.Contains(t, html, `id="field-lists"`)
	assert.Contains(t, html, `href="#field-lists"`)
	assert.Contains(t, html, `class="admonition note"`)
	// Chroma splits the snippet into per-token spans; assert on the figure
	// wrapper and a single token.
	assert.Contains(t, html, `<figure class="code">`)
	assert.Contains(t, html, "register")

	idx := string(pages["index.html"])
	assert.Contains(t, idx, `href="form.html"`)
}

func TestRenderProject_CrossDocumentRef(t *testing.T) {
	_, pages := renderFixture(t, map[string]string{
		"a.rst":       "Alpha\n=====\n\nSee :ref:`deep-topic`.\n",
		"sub/b.rst":   "Beta\n====\n\n.. _deep-topic:\n\nDeep topic\n----------\n\nBody.\n",
		"sub/c.rst":   "Gamma\n=====\n\nSee :ref:`deep-topic` too.\n",
	})

	a := string(pages["a.html"])
	assert.Contains(t, a, `href="sub/b.html#deep-topic"`)

	// Pages below the root climb back out before descending again, and link
	// home the same way.
	c := string(pages["sub/c.html"])
	assert.Contains(t, c, `href="../sub/b.html#deep-topic"`)
	assert.Contains(t, c, `href="../index.html"`)
}

func TestRenderProject_ExplicitTargetGetsID(t *testing.T) {
	_, pages := renderFixture(t, map[string]string{
		"a.rst": "Alpha\n=====\n\nSee :ref:`install`.\n",
		"b.rst": ".. _install:\n\nGetting it\n==========\n\nBody.\n\n.. _checklist:\n\nEverything above applies.\n",
	})

	a := string(pages["a.html"])
	assert.Contains(t, a, `href="b.html#install"`)

	// Alias on the section and a target attached to a paragraph both become
	// addressable spans.
	b := string(pages["b.html"])
	assert.Contains(t, b, `<span id="install"></span>`)
	assert.Contains(t, b, `<span id="checklist"></span>`)

	assert.Empty(t, AuditLinks(pages))
}

func TestRenderProject_UnresolvedRefDegrades(t *testing.T) {
	_, pages := renderFixture(t, map[string]string{
		"a.rst": "Alpha\n=====\n\nSee :ref:`nowhere`.\n",
	})
	html := string(pages["a.html"])
	assert.Contains(t, html, "<code>nowhere</code>")
	assert.NotContains(t, html, "#nowhere")
}

func TestToMarkdown(t *testing.T) {
	doc, _ := parser.Parse([]byte(pageSource), "form.rst")
	md := ToMarkdown(doc)

	assert.Contains(t, md, "# Customizing the admin form")
	assert.Contains(t, md, "## Field lists")
	assert.Contains(t, md, "```python")
	assert.Contains(t, md, "> Admin options live on the ModelAdmin class.")
}

func TestRenderTerm(t *testing.T) {
	doc, _ := parser.Parse([]byte(pageSource), "form.rst")
	out, err := RenderTerm(doc, 80)
	require.NoError(t, err)
	assert.Contains(t, out, "Customizing the admin form")
}

func TestAuditLinks(t *testing.T) {
	pages := map[string][]byte{
		"a.html": []byte(`<html><body>
			<a href="b.html#present">ok</a>
			<a href="b.html#absent">broken fragment</a>
			<a href="missing.html">broken page</a>
			<a href="https://example.com/out">external</a>
		</body></html>`),
		"b.html": []byte(`<html><body><h2 id="present">Present</h2></body></html>`),
	}

	diags := AuditLinks(pages)
	require.Len(t, diags, 2)

	var messages []string
	for _, d := range diags {
		assert.Equal(t, "linkaudit", d.Check)
		messages = append(messages, d.Message)
	}
	joined := strings.Join(messages, "\n")
	assert.Contains(t, joined, "absent")
	assert.Contains(t, joined, "missing.html")
	assert.NotContains(t, joined, "example.com")
}

func TestAuditLinks_CleanSiteIsQuiet(t *testing.T) {
	pages := map[string][]byte{
		"index.html": []byte(`<html><body><a href="a.html">a</a></body></html>`),
		"a.html":     []byte(`<html><body><a href="index.html">home</a></body></html>`),
	}
	assert.Empty(t, AuditLinks(pages))
}

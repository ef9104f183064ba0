package document

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Getting started":        "getting-started",
		"Customize the  layout!": "customize-the-layout",
		"ADMIN / Site":           "admin-site",
		"  spaces  ":             "spaces",
		"Go 1.24":                "go-1-24",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildAnchorTable_Duplicates(t *testing.T) {
	p := &Project{Documents: []*Document{
		{Path: "a.rst", Anchors: []Anchor{
			{Label: "intro", Doc: "a.rst", Line: 1},
			{Label: "setup", Doc: "a.rst", Line: 10},
		}},
		{Path: "b.rst", Anchors: []Anchor{
			{Label: "intro", Doc: "b.rst", Line: 3},
		}},
	}}

	dups := p.BuildAnchorTable()
	want := []Duplicate{{
		Anchor: Anchor{Label: "intro", Doc: "b.rst", Line: 3},
		First:  Anchor{Label: "intro", Doc: "a.rst", Line: 1},
	}}
	if diff := cmp.Diff(want, dups); diff != "" {
		t.Errorf("duplicates mismatch (-want +got):\n%s", diff)
	}
	// First definition wins.
	if p.Anchors["intro"].Doc != "a.rst" {
		t.Errorf("expected table to keep a.rst, got %s", p.Anchors["intro"].Doc)
	}
	if len(p.Anchors) != 2 {
		t.Errorf("expected 2 table entries, got %d", len(p.Anchors))
	}
}

func TestWalk_VisitsNestedNodes(t *testing.T) {
	doc := &Document{
		Preamble: []*Node{{Kind: KindParagraph, Text: "pre"}},
		Sections: []*Section{{
			Title: "Top",
			Nodes: []*Node{
				{Kind: KindAdmonition, Children: []*Node{
					{Kind: KindParagraph, Text: "inner"},
				}},
			},
			Sections: []*Section{{
				Title: "Sub",
				Nodes: []*Node{{Kind: KindCodeBlock, Body: "x = 1"}},
			}},
		}},
	}

	var kinds []NodeKind
	doc.Walk(func(_ *Section, n *Node) bool {
		kinds = append(kinds, n.Kind)
		return true
	})

	want := []NodeKind{KindParagraph, KindAdmonition, KindParagraph, KindCodeBlock}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_EarlyStop(t *testing.T) {
	doc := &Document{Sections: []*Section{{
		Nodes: []*Node{{Kind: KindParagraph}, {Kind: KindParagraph}},
	}}}
	visits := 0
	doc.Walk(func(_ *Section, _ *Node) bool {
		visits++
		return false
	})
	if visits != 1 {
		t.Errorf("expected walk to stop after 1 visit, got %d", visits)
	}
}

func TestPlainText_IncludesCodeAndAdmonitions(t *testing.T) {
	s := &Section{Nodes: []*Node{
		{Kind: KindParagraph, Text: "register your model"},
		{Kind: KindCodeBlock, Body: "admin.site.register(Poll)"},
		{Kind: KindAdmonition, Children: []*Node{
			{Kind: KindParagraph, Text: "inside the note"},
		}},
		{Kind: KindImage, Target: "x.png"},
	}}
	text := s.PlainText()
	for _, want := range []string{"register your model", "admin.site.register(Poll)", "inside the note"} {
		if !strings.Contains(text, want) {
			t.Errorf("PlainText missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "x.png") {
		t.Errorf("PlainText should not include image targets")
	}
}

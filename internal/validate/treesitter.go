package validate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"docforge/internal/logging"
)

// SyntaxError describes the first malformed region found in a snippet.
// Line is 0-based within the snippet.
type SyntaxError struct {
	Line    int
	Column  int
	Context string
}

func (e *SyntaxError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("syntax error near %q", e.Context)
	}
	return "syntax error"
}

// TreeSitterChecker parses code snippets with tree-sitter and reports parse
// trees containing ERROR or MISSING nodes. One parser per language; Parse is
// serialized per parser.
type TreeSitterChecker struct {
	mu      sync.Mutex
	parsers map[string]*sitter.Parser
}

// NewTreeSitterChecker creates parsers for the supported grammars.
func NewTreeSitterChecker() *TreeSitterChecker {
	langs := map[string]*sitter.Language{
		"go":         golang.GetLanguage(),
		"python":     python.GetLanguage(),
		"javascript": javascript.GetLanguage(),
		"typescript": typescript.GetLanguage(),
		"rust":       rust.GetLanguage(),
	}
	parsers := make(map[string]*sitter.Parser, len(langs))
	for name, lang := range langs {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		parsers[name] = p
	}
	return &TreeSitterChecker{parsers: parsers}
}

// Supports reports whether lang has a grammar.
func (t *TreeSitterChecker) Supports(lang string) bool {
	_, ok := t.parsers[normalizeLang(lang)]
	return ok
}

// Check parses the snippet and returns nil when the tree is clean, a
// *SyntaxError when it is not.
func (t *TreeSitterChecker) Check(ctx context.Context, lang string, body []byte) error {
	parser, ok := t.parsers[normalizeLang(lang)]
	if !ok {
		return fmt.Errorf("no grammar for language %q", lang)
	}

	t.mu.Lock()
	tree, err := parser.ParseCtx(ctx, nil, body)
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	bad := firstErrorNode(root)
	if bad == nil {
		bad = root
	}
	pt := bad.StartPoint()
	ctxText := bad.Content(body)
	if len(ctxText) > 40 {
		ctxText = ctxText[:40]
	}
	logging.ValidateDebug("tree-sitter: %s snippet malformed at %d:%d", lang, pt.Row, pt.Column)
	return &SyntaxError{
		Line:    int(pt.Row),
		Column:  int(pt.Column),
		Context: strings.TrimSpace(ctxText),
	}
}

// Close releases the parsers.
func (t *TreeSitterChecker) Close() {
	for _, p := range t.parsers {
		p.Close()
	}
}

// firstErrorNode walks the tree for the first ERROR or MISSING node.
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return n
}

// normalizeLang maps common aliases onto grammar names.
func normalizeLang(lang string) string {
	switch strings.ToLower(lang) {
	case "go", "golang":
		return "go"
	case "py", "python", "python3":
		return "python"
	case "js", "javascript", "node":
		return "javascript"
	case "ts", "typescript":
		return "typescript"
	case "rs", "rust":
		return "rust"
	default:
		return strings.ToLower(lang)
	}
}

// Package witness gives a best-effort syntax sanity check over a rendered
// witness hint (§4.3's witness.hint_template output): it does not compile
// the snippet, only flags text tree-sitter's Go grammar cannot parse at
// all, so a badly-templated hint degrades to a warning rather than
// silently shipping garbage in a diagnostic.
package witness

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// Check parses src with the Go grammar and reports whether tree-sitter
// found any ERROR nodes. A false result is advisory only: callers should
// attach it as a warning alongside the witness, never fail the run over it
// (§4.3 "best-effort").
func Check(ctx context.Context, src string) (ok bool, err error) {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, []byte(src))
	if err != nil {
		return false, err
	}
	defer tree.Close()

	return !hasError(tree.RootNode()), nil
}

func hasError(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	if n.IsError() || n.IsMissing() {
		return true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if hasError(n.Child(i)) {
			return true
		}
	}
	return false
}

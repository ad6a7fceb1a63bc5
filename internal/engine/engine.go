// Package engine implements the two-graph join evaluator of spec.md §4.2:
// a depth-first walk of each scope's query tree against a graph, joined
// across scopes through tag bindings, with fold aggregation and optional
// edges.
package engine

import (
	"context"

	"github.com/semverlint/semverlint/internal/graph"
	"github.com/semverlint/semverlint/internal/query"
)

// Row is one joined result: output name to concrete value. Tags are the
// join mechanism and never appear in a Row unless also marked @output.
type Row map[string]graph.Value

type bindings struct {
	tags    map[string]graph.Value
	outputs map[string]graph.Value
}

// joinOrder decides which scope is walked first. The first scope's tags
// become available, via %name operands, to the second scope's filters.
type joinOrder int

const (
	baselineFirst joinOrder = iota
	currentFirst
)

// Evaluate runs a rule's two-scope query against a baseline/current graph
// pair and returns every joined row, in deterministic order. A non-nil
// error is always a fatal, rule-scoped *Error (unresolved tag, mixed tag
// dependencies, unknown fold/filter operator) or a context cancellation;
// it is never a "zero matches" result, which is expressed as a nil/empty
// row slice with a nil error.
func Evaluate(ctx context.Context, rq *query.RuleQuery, args query.Arguments, baseline, current *graph.Graph) ([]Row, error) {
	order, err := planJoinOrder(rq)
	if err != nil {
		return nil, err
	}

	firstScope, secondScope := rq.Baseline, rq.Current
	firstGraph, secondGraph := baseline, current
	if order == currentFirst {
		firstScope, secondScope = rq.Current, rq.Baseline
		firstGraph, secondGraph = current, baseline
	}

	rc := newRegexCache()

	var firstRows []bindings
	if err := walkScopeRoot(ctx, firstGraph, firstScope.Root, args, nil, rc, collectInto(&firstRows)); err != nil {
		return nil, err
	}

	var rows []Row
	for _, fr := range firstRows {
		if err := ctx.Err(); err != nil {
			return rows, newErr(KindCancelled, "evaluation cancelled: %v", err)
		}
		var secondRows []bindings
		if err := walkScopeRoot(ctx, secondGraph, secondScope.Root, args, fr.tags, rc, collectInto(&secondRows)); err != nil {
			return rows, err
		}
		if secondScope.Root.Optional {
			// The second scope's `item` selector is itself marked
			// @optional: this expresses "no counterpart exists in this
			// graph any more," i.e. an anti-join, not a left-outer
			// join. Emit the bare first-scope row only when the second
			// scope found nothing; a surviving counterpart suppresses
			// the row entirely, it does not also join against it.
			if len(secondRows) == 0 {
				rows = append(rows, mergeRow(fr, bindings{}))
			}
			continue
		}
		for _, sr := range secondRows {
			rows = append(rows, mergeRow(fr, sr))
		}
	}
	return rows, nil
}

func collectInto(out *[]bindings) emitFunc {
	return func(tags, outputs map[string]graph.Value) error {
		*out = append(*out, bindings{tags: tags, outputs: outputs})
		return nil
	}
}

func mergeRow(fr, sr bindings) Row {
	row := make(Row, len(fr.outputs)+len(sr.outputs))
	for k, v := range fr.outputs {
		row[k] = v
	}
	for k, v := range sr.outputs {
		row[k] = v
	}
	return row
}

// walkScopeRoot walks a scope's `item` selector over a graph's root items,
// seeding each sub-walk with the prior scope's tag bindings (nil for the
// first scope evaluated).
func walkScopeRoot(ctx context.Context, g *graph.Graph, root *query.Node, args query.Arguments, seedTags map[string]graph.Value, rc *regexCache, emit emitFunc) error {
	tags := map[string]graph.Value{}
	for k, v := range seedTags {
		tags[k] = v
	}
	for _, item := range g.Items() {
		if err := evalChildren(ctx, item, root.Children, 0, args, tags, map[string]graph.Value{}, rc, emit); err != nil {
			return err
		}
	}
	return nil
}

// planJoinOrder inspects which scope's filters reference tags produced by
// the other scope and picks an evaluation order accordingly (§4.2's join
// resolution; decided per SPEC_FULL.md's "dual tag producer" and ordering
// notes). The common case — tags produced in baseline, consumed in
// current — evaluates baseline first.
func planJoinOrder(rq *query.RuleQuery) (joinOrder, error) {
	baselineTags := collectTags(rq.Baseline.Root)
	currentTags := collectTags(rq.Current.Root)
	for t := range baselineTags {
		if currentTags[t] {
			return 0, newErr(KindAmbiguousTag, "tag %q is produced by both the baseline and current scopes", t)
		}
	}

	baselineConsumes := collectTagRefs(rq.Baseline.Root)
	currentConsumes := collectTagRefs(rq.Current.Root)

	baselineNeedsCurrent := false
	for t := range baselineConsumes {
		if currentTags[t] {
			baselineNeedsCurrent = true
		}
	}
	currentNeedsBaseline := false
	for t := range currentConsumes {
		if baselineTags[t] {
			currentNeedsBaseline = true
		}
	}

	switch {
	case baselineNeedsCurrent && currentNeedsBaseline:
		return 0, newErr(KindMixedTagDeps, "query has mixed tag dependencies: each scope references a tag produced by the other")
	case baselineNeedsCurrent:
		return currentFirst, nil
	default:
		return baselineFirst, nil
	}
}

func collectTags(n *query.Node) map[string]bool {
	out := map[string]bool{}
	var walk func(*query.Node)
	walk = func(n *query.Node) {
		if n == nil {
			return
		}
		if n.Tag != "" {
			out[n.Tag] = true
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

func collectTagRefs(n *query.Node) map[string]bool {
	out := map[string]bool{}
	note := func(f *query.Filter) {
		if f != nil && f.Operand.Kind == query.OperandTag {
			out[f.Operand.Name] = true
		}
	}
	var walk func(*query.Node)
	walk = func(n *query.Node) {
		if n == nil {
			return
		}
		for _, f := range n.Filters {
			note(f)
		}
		note(n.FoldFilter)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

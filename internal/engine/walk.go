package engine

import (
	"context"

	"github.com/semverlint/semverlint/internal/graph"
	"github.com/semverlint/semverlint/internal/query"
)

// emitFunc receives one fully-bound (tags, outputs) pair for a completed
// scope walk.
type emitFunc func(tags, outputs map[string]graph.Value) error

// contFunc is the continuation-passing-style callback used while walking a
// sibling list: "this node's constraint is satisfied; continue with the
// next sibling under these (possibly extended) bindings."
type contFunc func(tags, outputs map[string]graph.Value) error

func withTag(tags map[string]graph.Value, name string, v graph.Value) map[string]graph.Value {
	out := make(map[string]graph.Value, len(tags)+1)
	for k, val := range tags {
		out[k] = val
	}
	out[name] = v
	return out
}

func withOutput(outputs map[string]graph.Value, name string, v graph.Value) map[string]graph.Value {
	out := make(map[string]graph.Value, len(outputs)+1)
	for k, val := range outputs {
		out[k] = val
	}
	out[name] = v
	return out
}

// evalChildren processes a sibling list of selectors against the same
// vertex v, conjunctively: every child must match for the list to
// contribute a row. idx is the position currently being processed; at
// idx == len(nodes) the accumulated bindings are handed to emit.
func evalChildren(ctx context.Context, v graph.Vertex, nodes []*query.Node, idx int, args query.Arguments, tags, outputs map[string]graph.Value, rc *regexCache, emit emitFunc) error {
	if idx >= len(nodes) {
		return emit(tags, outputs)
	}
	n := nodes[idx]
	return evalNode(ctx, v, n, args, tags, outputs, rc, func(tags2, outputs2 map[string]graph.Value) error {
		return evalChildren(ctx, v, nodes, idx+1, args, tags2, outputs2, rc, emit)
	})
}

// evalNode evaluates a single selector against vertex v, invoking cont once
// per successful branch (zero times if the selector fails to match).
func evalNode(ctx context.Context, v graph.Vertex, n *query.Node, args query.Arguments, tags, outputs map[string]graph.Value, rc *regexCache, cont contFunc) error {
	if err := ctx.Err(); err != nil {
		return newErr(KindCancelled, "evaluation cancelled: %v", err)
	}

	switch n.Type {
	case query.NodeRefine:
		if v.Kind() != n.RefineKind {
			return nil
		}
		return evalChildren(ctx, v, n.Children, 0, args, tags, outputs, rc, cont)

	case query.NodeProp:
		return evalProp(v, n, args, tags, outputs, rc, cont)

	case query.NodeEdge:
		if n.Fold {
			return evalFold(ctx, v, n, args, tags, outputs, rc, cont)
		}
		return evalEdge(ctx, v, n, args, tags, outputs, rc, cont)

	default:
		return newErr(KindUnknownFilterOp, "unrecognized selector node type")
	}
}

func evalProp(v graph.Vertex, n *query.Node, args query.Arguments, tags, outputs map[string]graph.Value, rc *regexCache, cont contFunc) error {
	val, ok := v.Get(n.Prop)
	if !ok {
		val = graph.Null
	}
	for _, f := range n.Filters {
		pass, err := applyFilter(f, val, args, tags, rc)
		if err != nil {
			return err
		}
		if !pass {
			return nil
		}
	}
	if n.Tag != "" {
		tags = withTag(tags, n.Tag, val)
	}
	if n.Output != "" {
		outputs = withOutput(outputs, n.Output, val)
	}
	return cont(tags, outputs)
}

func evalEdge(ctx context.Context, v graph.Vertex, n *query.Node, args query.Arguments, tags, outputs map[string]graph.Value, rc *regexCache, cont contFunc) error {
	targets, ok := v.Edges(n.Edge)
	if !ok || len(targets) == 0 {
		if n.Optional {
			// A missing or empty optional branch still emits the outer row,
			// with none of the branch's own tags/outputs bound (§4.2).
			return cont(tags, outputs)
		}
		return nil
	}
	for _, t := range targets {
		if err := evalChildren(ctx, t, n.Children, 0, args, tags, outputs, rc, cont); err != nil {
			return err
		}
	}
	return nil
}

// evalFold collects every sub-match of n.Children across all of v's targets
// for the folded edge, applies the aggregation operator (only "count" is
// required by the grammar), filters on the aggregate if n.FoldFilter is
// set, and otherwise (no @transform) folds each child @output into an
// array, zipped by sub-match (§4.2 "Fold").
func evalFold(ctx context.Context, v graph.Vertex, n *query.Node, args query.Arguments, tags, outputs map[string]graph.Value, rc *regexCache, cont contFunc) error {
	targets, ok := v.Edges(n.Edge)
	if !ok {
		targets = nil
	}

	var subRows []bindings
	for _, t := range targets {
		if err := evalChildren(ctx, t, n.Children, 0, args, tags, map[string]graph.Value{}, rc, collectInto(&subRows)); err != nil {
			return err
		}
	}

	switch n.Transform {
	case "", "count":
		// "" (no @transform) degenerates to the same count semantics unless
		// the fold also carries per-child @output fields, in which case
		// those are additionally zipped into arrays below.
		count := graph.Int(int64(len(subRows)))
		if n.FoldFilter != nil {
			pass, err := applyFilter(n.FoldFilter, count, args, tags, rc)
			if err != nil {
				return err
			}
			if !pass {
				return nil
			}
		}
		if n.Transform == "count" {
			if n.Tag != "" {
				tags = withTag(tags, n.Tag, count)
			}
			if n.Output != "" {
				outputs = withOutput(outputs, n.Output, count)
			}
			return cont(tags, outputs)
		}
		// Bare fold: zip each sub-row's outputs into arrays under their own
		// output names.
		arrays := map[string][]graph.Value{}
		var order []string
		for _, sr := range subRows {
			for k, v := range sr.outputs {
				if _, seen := arrays[k]; !seen {
					order = append(order, k)
				}
				arrays[k] = append(arrays[k], v)
			}
		}
		for _, k := range order {
			outputs = withOutput(outputs, k, graph.List(arrays[k]))
		}
		return cont(tags, outputs)

	default:
		return newErr(KindUnknownFoldOp, "unknown fold aggregation operator %q", n.Transform)
	}
}

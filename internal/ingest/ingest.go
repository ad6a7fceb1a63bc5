// Package ingest supplies the one concrete graph.Source this repository
// ships: a reader for a JSON dump shaped like the ingestion contract of
// spec.md §6.1. It exists only as a harness for the CLI driver and the
// end-to-end tests; building a real ingestion pipeline from an upstream
// library-description toolchain is explicitly out of scope (§1).
package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/semverlint/semverlint/internal/graph"
)

// jsonItem is the wire shape of one vertex: a kind discriminator, a flat
// property bag, and a map of edge name to nested child items.
type jsonItem struct {
	Kind  string                `json:"kind"`
	Props map[string]any        `json:"props"`
	Edges map[string][]jsonItem `json:"edges"`
}

// jsonDump is the top-level document: a list of root items.
type jsonDump struct {
	Items []jsonItem `json:"items"`
}

// Source is a graph.Source backed by an in-memory decoded JSON dump.
type Source struct {
	root []graph.Vertex
}

// Read decodes a JSON dump from r into a Source. Every nested item becomes
// an *graph.Item, with edges set via SetEdge so that "edge present, zero
// targets" and "edge entirely absent" stay distinguishable exactly as the
// dump expresses them (an edge key absent from the JSON object means the
// edge itself is absent; an edge key present with an empty array means the
// edge exists with zero targets).
func Read(r io.Reader) (*Source, error) {
	var dump jsonDump
	dec := json.NewDecoder(r)
	if err := dec.Decode(&dump); err != nil {
		return nil, fmt.Errorf("ingest: decoding json dump: %w", err)
	}
	root := make([]graph.Vertex, len(dump.Items))
	for i, it := range dump.Items {
		root[i] = buildItem(it)
	}
	return &Source{root: root}, nil
}

func buildItem(it jsonItem) *graph.Item {
	props := make(map[string]graph.Value, len(it.Props))
	for k, v := range it.Props {
		props[k] = jsonToValue(v)
	}
	item := graph.NewItem(it.Kind, props)
	for edgeName, children := range it.Edges {
		targets := make([]graph.Vertex, len(children))
		for i, c := range children {
			targets[i] = buildItem(c)
		}
		item.SetEdge(edgeName, targets)
	}
	return item
}

// jsonToValue converts a decoded JSON scalar/array into a graph.Value. JSON
// numbers decode as float64; they are rendered through their integer form
// when they carry no fractional part, matching the discriminant and line
// number fields the dump carries.
func jsonToValue(v any) graph.Value {
	switch tv := v.(type) {
	case nil:
		return graph.Null
	case string:
		return graph.String(tv)
	case bool:
		return graph.Bool(tv)
	case float64:
		if tv == float64(int64(tv)) {
			return graph.Int(int64(tv))
		}
		return graph.String(fmt.Sprintf("%g", tv))
	case []any:
		vs := make([]graph.Value, len(tv))
		for i, e := range tv {
			vs[i] = jsonToValue(e)
		}
		return graph.List(vs)
	default:
		return graph.Null
	}
}

// Root implements graph.Source.
func (s *Source) Root() []graph.Vertex { return s.root }

package graph

// Vertex is satisfied by every concrete item in the schema. Property and
// edge access go through Get/Edges rather than reflection, so that
// "... on Variant" type refinement (a Kind() equality check) is a checked
// downcast rather than a reflection trick, per spec.md §9. Query
// evaluation (internal/engine) never needs anything beyond this: the
// query DSL already names properties and edges as strings, so a fixed
// per-kind Go accessor on top of that would only duplicate what Get/Edges
// already do generically.
type Vertex interface {
	// Kind returns the concrete variant name used by "... on Name"
	// refinement ("Enum", "Struct", "PlainVariant", ...).
	Kind() string

	// Get returns a scalar or list property by name. ok is false when the
	// vertex has no such property (distinct from a present-but-empty one).
	Get(name string) (Value, bool)

	// Edges returns the target vertices reachable via the named edge from
	// this vertex, in the graph's deterministic enumeration order. ok is
	// false when the vertex has no edge of that name at all (as opposed to
	// zero targets, which is a valid — if degenerate — edge result).
	Edges(name string) ([]Vertex, bool)
}

// Item is the concrete Vertex implementation for every schema entity in
// §3.3: Enum, Struct, Union, Trait, Function, Static, Constant, Variant (and
// its Tuple/Struct/Plain sub-kinds), Field, Method, AssociatedType,
// AssociatedConstant, Impl, Attribute, AttributeMetaItem, GenericParameter
// (and its Type/Const sub-kinds), RequiresFeature, Span, Path, and the
// graph root ("Crate").
type Item struct {
	kind  string
	props map[string]Value
	edges map[string][]Vertex
}

// NewItem constructs a vertex of the given kind with no edges. props may be
// nil; callers build up edges with AddEdge or SetEdge.
func NewItem(kind string, props map[string]Value) *Item {
	if props == nil {
		props = map[string]Value{}
	}
	return &Item{kind: kind, props: props, edges: map[string][]Vertex{}}
}

// AddEdge appends one target to the named edge, creating it if absent.
func (it *Item) AddEdge(name string, target Vertex) *Item {
	it.edges[name] = append(it.edges[name], target)
	return it
}

// SetEdge replaces the named edge's target list wholesale (including the
// empty slice, which is a meaningful "edge present, zero targets" state
// distinct from the edge being entirely absent — see Edges).
func (it *Item) SetEdge(name string, targets []Vertex) *Item {
	it.edges[name] = targets
	return it
}

func (it *Item) Kind() string { return it.kind }

func (it *Item) Get(name string) (Value, bool) {
	v, ok := it.props[name]
	return v, ok
}

func (it *Item) Edges(name string) ([]Vertex, bool) {
	v, ok := it.edges[name]
	return v, ok
}

// Package query implements the declarative graph pattern language of
// spec.md §4.1: nested selection, property filters, tags, outputs, type
// refinement, folds with aggregation, and optional edges, embedded as a
// small curly-brace DSL inside a rule file's `query` field.
package query

// Op is a filter comparison operator.
type Op string

const (
	OpEq         Op = "eq"
	OpNe         Op = "ne"
	OpGt         Op = "gt"
	OpLt         Op = "lt"
	OpGe         Op = "ge"
	OpLe         Op = "le"
	OpContains   Op = "contains"
	OpNotContain Op = "not_contains"
	OpRegex      Op = "regex"
	OpOneOf      Op = "one_of"
)

// OperandKind distinguishes a filter/transform operand's source.
type OperandKind int

const (
	OperandLiteral OperandKind = iota // a string/bool/int/array literal
	OperandArg                        // $name, resolved from the rule's argument map
	OperandTag                        // %name, resolved from a tag binding at join time
)

// Operand is the right-hand side of a @filter(op, operand).
type Operand struct {
	Kind    OperandKind
	Literal Lit
	Name    string // argument or tag name, when Kind != OperandLiteral
}

// Lit is a parsed literal value (string, bool, int, or array of strings).
type Lit struct {
	Str    string
	Bool   bool
	Int    int64
	List   []string
	IsBool bool
	IsInt  bool
	IsList bool
}

// Filter is a single `prop @filter(op, operand)` constraint, or the
// post-aggregation filter attached to a folded edge's @transform result.
type Filter struct {
	Op      Op
	Operand Operand
}

// NodeType distinguishes the three selector shapes the grammar supports.
type NodeType int

const (
	// NodeEdge traverses an edge to zero or more child vertices.
	NodeEdge NodeType = iota
	// NodeProp reads a scalar/list property of the current vertex.
	NodeProp
	// NodeRefine narrows the current vertex to a concrete variant
	// ("... on Enum { ... }"); its Children apply to the same vertex,
	// not to a traversed edge.
	NodeRefine
)

// Node is one selector in the query tree.
type Node struct {
	Type NodeType

	Edge string // NodeEdge
	Prop string // NodeProp

	RefineKind string // NodeRefine

	Fold      bool    // NodeEdge: collect all sub-matches
	Transform string  // NodeEdge + Fold: aggregation op, only "count" required
	FoldFilter *Filter // NodeEdge + Fold: filter on the aggregated scalar

	Optional bool // NodeEdge: permit zero matches

	Tag    string // binds this property (or fold aggregate) to a join tag
	Output string // adds this property (or fold aggregate) to the result row

	Filters []*Filter // NodeProp: constraints on the property value

	Children []*Node // NodeEdge, NodeRefine
}

// Scope is one top-level `baseline $ { ... }` or `current $ { ... }` block.
type Scope struct {
	Name string // "baseline" or "current"
	Root *Node  // always a NodeEdge named "item"
}

// RuleQuery is the parsed form of a rule's `query` field: exactly two
// scopes, joined only through shared tags (§4.1).
type RuleQuery struct {
	Baseline *Scope
	Current  *Scope
}

package engine

import (
	"regexp"
	"sync"

	"github.com/semverlint/semverlint/internal/graph"
	"github.com/semverlint/semverlint/internal/query"
)

// regexCache compiles `@filter(regex, ...)` patterns once per rule
// evaluation and reuses them across rows (§9: "compile patterns once per
// rule load").
type regexCache struct {
	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

func newRegexCache() *regexCache {
	return &regexCache{cache: map[string]*regexp.Regexp{}}
}

func (rc *regexCache) compile(pattern string) (*regexp.Regexp, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if re, ok := rc.cache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, newErr(KindBadRegex, "invalid regex pattern %q: %v", pattern, err)
	}
	rc.cache[pattern] = re
	return re, nil
}

// litToValue converts a parsed literal operand into a graph.Value.
func litToValue(l query.Lit) graph.Value {
	switch {
	case l.IsList:
		vs := make([]graph.Value, len(l.List))
		for i, s := range l.List {
			vs[i] = graph.String(s)
		}
		return graph.List(vs)
	case l.IsBool:
		return graph.Bool(l.Bool)
	case l.IsInt:
		return graph.Int(l.Int)
	default:
		return graph.String(l.Str)
	}
}

// resolveOperand turns a filter's right-hand operand into a concrete
// value, looking up $args and %tags as needed. An unresolved $arg or %tag
// reference is a fatal error, never a silent zero-match (§4.1, §7).
func resolveOperand(op query.Operand, args query.Arguments, tags map[string]graph.Value) (graph.Value, error) {
	switch op.Kind {
	case query.OperandLiteral:
		return litToValue(op.Literal), nil
	case query.OperandArg:
		lit, ok := args[op.Name]
		if !ok {
			return graph.Null, newErr(KindUnresolvedTag, "unresolved argument $%s", op.Name)
		}
		return litToValue(lit), nil
	case query.OperandTag:
		v, ok := tags[op.Name]
		if !ok {
			return graph.Null, newErr(KindUnresolvedTag, "unresolved tag %%%s: not bound by either scope", op.Name)
		}
		return v, nil
	default:
		return graph.Null, newErr(KindUnresolvedTag, "unrecognized operand")
	}
}

// applyFilter evaluates one @filter(op, operand) against an actual value.
func applyFilter(f *query.Filter, actual graph.Value, args query.Arguments, tags map[string]graph.Value, rc *regexCache) (bool, error) {
	operand, err := resolveOperand(f.Operand, args, tags)
	if err != nil {
		return false, err
	}
	switch f.Op {
	case query.OpEq:
		return graph.Equal(actual, operand), nil
	case query.OpNe:
		return !graph.Equal(actual, operand), nil
	case query.OpGt:
		return graph.Compare(actual, operand) > 0, nil
	case query.OpLt:
		return graph.Compare(actual, operand) < 0, nil
	case query.OpGe:
		return graph.Compare(actual, operand) >= 0, nil
	case query.OpLe:
		return graph.Compare(actual, operand) <= 0, nil
	case query.OpContains:
		return graph.Contains(actual, operand), nil
	case query.OpNotContain:
		return !graph.Contains(actual, operand), nil
	case query.OpOneOf:
		for _, e := range operand.AsList() {
			if graph.Equal(actual, e) {
				return true, nil
			}
		}
		return false, nil
	case query.OpRegex:
		re, err := rc.compile(operand.AsString())
		if err != nil {
			return false, err
		}
		return re.MatchString(actual.AsString()), nil
	default:
		return false, newErr(KindUnknownFilterOp, "unknown filter operator %q", f.Op)
	}
}

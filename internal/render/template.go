package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/semverlint/semverlint/internal/graph"
)

// Row is the per-match value bag a template renders from: engine.Row
// widened to avoid render depending on engine.
type Row map[string]graph.Value

// node is one parsed template element.
type node struct {
	kind     string // "text", "var", "if", "unless", "repeat"
	text     string
	expr     string
	body     []node
	elseBody []node
}

type rawTok struct {
	isTag bool
	val   string
}

// Render compiles and executes a §4.3 diagnostic template against one
// matched row. Missing or null fields render as the empty string rather
// than failing the render (per the rendering contract).
func Render(tmpl string, row Row) (string, error) {
	toks := tokenize(tmpl)
	nodes, _, stop, err := parseBlock(toks, 0, nil)
	if err != nil {
		return "", err
	}
	if stop != "" {
		return "", fmt.Errorf("render: unmatched closing tag %q", stop)
	}
	sc := &scope{vars: map[string]graph.Value(row)}
	var b strings.Builder
	if err := renderNodes(nodes, sc, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func tokenize(tmpl string) []rawTok {
	var toks []rawTok
	for {
		start := strings.Index(tmpl, "{{")
		if start < 0 {
			if tmpl != "" {
				toks = append(toks, rawTok{val: tmpl})
			}
			return toks
		}
		if start > 0 {
			toks = append(toks, rawTok{val: tmpl[:start]})
		}
		rest := tmpl[start+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			toks = append(toks, rawTok{val: tmpl[start:]})
			return toks
		}
		toks = append(toks, rawTok{isTag: true, val: strings.TrimSpace(rest[:end])})
		tmpl = rest[end+2:]
	}
}

// parseBlock consumes tokens until it sees a tag in stopTags (or EOF for the
// top-level call, where stopTags is nil). It returns the parsed node list,
// the position just past the stop tag, and the stop tag text itself.
func parseBlock(toks []rawTok, pos int, stopTags map[string]bool) ([]node, int, string, error) {
	var out []node
	for pos < len(toks) {
		t := toks[pos]
		if !t.isTag {
			out = append(out, node{kind: "text", text: t.val})
			pos++
			continue
		}
		if stopTags != nil && stopTags[t.val] {
			return out, pos + 1, t.val, nil
		}
		switch {
		case strings.HasPrefix(t.val, "#if "):
			cond := strings.TrimSpace(strings.TrimPrefix(t.val, "#if "))
			body, next, stop, err := parseBlock(toks, pos+1, map[string]bool{"else": true, "/if": true})
			if err != nil {
				return nil, 0, "", err
			}
			var elseBody []node
			if stop == "else" {
				elseBody, next, stop, err = parseBlock(toks, next, map[string]bool{"/if": true})
				if err != nil {
					return nil, 0, "", err
				}
			}
			if stop != "/if" {
				return nil, 0, "", fmt.Errorf("render: unterminated {{#if %s}}", cond)
			}
			out = append(out, node{kind: "if", expr: cond, body: body, elseBody: elseBody})
			pos = next
		case strings.HasPrefix(t.val, "#unless "):
			cond := strings.TrimSpace(strings.TrimPrefix(t.val, "#unless "))
			body, next, stop, err := parseBlock(toks, pos+1, map[string]bool{"/unless": true})
			if err != nil {
				return nil, 0, "", err
			}
			if stop != "/unless" {
				return nil, 0, "", fmt.Errorf("render: unterminated {{#unless %s}}", cond)
			}
			out = append(out, node{kind: "unless", expr: cond, body: body})
			pos = next
		case strings.HasPrefix(t.val, "#repeat "):
			list := strings.TrimSpace(strings.TrimPrefix(t.val, "#repeat "))
			body, next, stop, err := parseBlock(toks, pos+1, map[string]bool{"/repeat": true})
			if err != nil {
				return nil, 0, "", err
			}
			if stop != "/repeat" {
				return nil, 0, "", fmt.Errorf("render: unterminated {{#repeat %s}}", list)
			}
			out = append(out, node{kind: "repeat", expr: list, body: body})
			pos = next
		default:
			out = append(out, node{kind: "var", expr: t.val})
			pos++
		}
	}
	return out, pos, "", nil
}

// scope resolves identifiers during render: a flat variable map, plus the
// special @index/@last/. bindings a {{#repeat}} body sees.
type scope struct {
	vars     map[string]graph.Value
	parent   *scope
	dot      *graph.Value
	index    int
	last     bool
	hasIndex bool
}

func (s *scope) lookup(name string) (graph.Value, bool) {
	if name == "." && s.dot != nil {
		return *s.dot, true
	}
	if s.vars != nil {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	if s.parent != nil {
		return s.parent.lookup(name)
	}
	return graph.Null, false
}

func (s *scope) indexOf() (int, bool, bool) {
	if s.hasIndex {
		return s.index, s.last, true
	}
	if s.parent != nil {
		return s.parent.indexOf()
	}
	return 0, false, false
}

func renderNodes(nodes []node, sc *scope, b *strings.Builder) error {
	for _, n := range nodes {
		switch n.kind {
		case "text":
			b.WriteString(n.text)
		case "var":
			v, err := evalExpr(n.expr, sc)
			if err != nil {
				return err
			}
			b.WriteString(v)
		case "if":
			ok, err := evalCond(n.expr, sc)
			if err != nil {
				return err
			}
			if ok {
				if err := renderNodes(n.body, sc, b); err != nil {
					return err
				}
			} else if err := renderNodes(n.elseBody, sc, b); err != nil {
				return err
			}
		case "unless":
			ok, err := evalCond(n.expr, sc)
			if err != nil {
				return err
			}
			if !ok {
				if err := renderNodes(n.body, sc, b); err != nil {
					return err
				}
			}
		case "repeat":
			v, _ := sc.lookup(n.expr)
			items := v.AsList()
			for i, item := range items {
				item := item
				child := &scope{parent: sc, dot: &item, index: i, last: i == len(items)-1, hasIndex: true}
				if err := renderNodes(n.body, child, b); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func evalExpr(expr string, sc *scope) (string, error) {
	switch expr {
	case "@index":
		i, _, ok := sc.indexOf()
		if !ok {
			return "", nil
		}
		return strconv.Itoa(i), nil
	case "@last":
		_, last, ok := sc.indexOf()
		if !ok {
			return "", nil
		}
		return strconv.FormatBool(last), nil
	case ".":
		v, _ := sc.lookup(".")
		return v.AsString(), nil
	}

	parts := splitArgs(expr)
	if len(parts) == 0 {
		return "", nil
	}
	switch parts[0] {
	case "join":
		if len(parts) != 3 {
			return "", fmt.Errorf("render: {{join}} expects a quoted separator and a field name")
		}
		sep := unquote(parts[1])
		v, _ := sc.lookup(parts[2])
		items := v.AsList()
		strs := make([]string, len(items))
		for i, e := range items {
			strs[i] = e.AsString()
		}
		return strings.Join(strs, sep), nil
	case "lowercase":
		if len(parts) != 2 {
			return "", fmt.Errorf("render: {{lowercase}} expects one field name")
		}
		v, _ := sc.lookup(parts[1])
		return strings.ToLower(v.AsString()), nil
	case "to_string":
		if len(parts) != 2 {
			return "", fmt.Errorf("render: {{to_string}} expects one field name")
		}
		v, _ := sc.lookup(parts[1])
		return v.AsString(), nil
	case "eq", "ne":
		ok, err := evalCond(expr, sc)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(ok), nil
	default:
		v, _ := sc.lookup(expr)
		return v.AsString(), nil
	}
}

func evalCond(expr string, sc *scope) (bool, error) {
	parts := splitArgs(expr)
	if len(parts) == 3 && (parts[0] == "eq" || parts[0] == "ne") {
		a := resolveArg(parts[1], sc)
		b := resolveArg(parts[2], sc)
		eq := graph.Equal(a, b)
		if parts[0] == "eq" {
			return eq, nil
		}
		return !eq, nil
	}
	if expr == "@last" {
		_, last, _ := sc.indexOf()
		return last, nil
	}
	v, ok := sc.lookup(expr)
	if !ok {
		return false, nil
	}
	return v.AsBool(), nil
}

func resolveArg(tok string, sc *scope) graph.Value {
	if strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2 {
		return graph.String(unquote(tok))
	}
	v, _ := sc.lookup(tok)
	return v
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// splitArgs tokenizes an expression's whitespace-separated arguments,
// keeping double-quoted strings intact.
func splitArgs(expr string) []string {
	var out []string
	var b strings.Builder
	inQuote := false
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for _, r := range expr {
		switch {
		case r == '"':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == ' ' && !inQuote:
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}

// Package rule represents a loaded lint rule (§4.3, §6.2): the parsed
// query plus everything a run needs to classify and render its matches.
package rule

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/semverlint/semverlint/internal/query"
)

// Level is a rule's configured severity, per §6.2's lint_level enum.
type Level string

const (
	LevelDeny Level = "deny"
	LevelWarn Level = "warn"
	LevelAllow Level = "allow"
)

// RequiredUpdate is the SemVer bump a rule's match implies, per §3.1.
type RequiredUpdate string

const (
	UpdateMajor RequiredUpdate = "major"
	UpdateMinor RequiredUpdate = "minor"
)

// AtLeastAsSevereAs orders major above minor, used when a runner aggregates
// the most severe required_update across every firing rule in a run.
func (u RequiredUpdate) AtLeastAsSevereAs(other RequiredUpdate) bool {
	if u == UpdateMajor {
		return true
	}
	return other != UpdateMajor
}

// Witness holds the optional witness-hint rendering config (§4.3).
type Witness struct {
	HintTemplate string `yaml:"hint_template"`
}

// rawRule is the YAML-shape of a rule file, before validation.
type rawRule struct {
	ID                    string            `yaml:"id"`
	HumanReadableName     string            `yaml:"human_readable_name"`
	Description           string            `yaml:"description"`
	Reference             string            `yaml:"reference"`
	RequiredUpdate        string            `yaml:"required_update"`
	LintLevel             string            `yaml:"lint_level"`
	Arguments             map[string]any    `yaml:"arguments"`
	Query                 string            `yaml:"query"`
	ErrorMessage          string            `yaml:"error_message"`
	PerResultErrorTemplate string           `yaml:"per_result_error_template"`
	Witness               Witness           `yaml:"witness"`
}

// Rule is a fully parsed and validated lint rule, ready for evaluation.
type Rule struct {
	ID                     string
	HumanReadableName      string
	Description            string
	Reference              string
	RequiredUpdate         RequiredUpdate
	LintLevel              Level
	Arguments              query.Arguments
	QuerySource            string
	Query                  *query.RuleQuery
	ErrorMessage           string
	PerResultErrorTemplate string
	Witness                Witness

	// SourcePath is the file this rule was loaded from, for diagnostics.
	SourcePath string
}

// Parse compiles one rule file's bytes into a Rule. It never partially
// applies a bad rule: any validation failure returns a non-nil error and a
// nil Rule (§7 "a malformed rule file fails to load... the run continues
// with the remaining rules").
func Parse(path string, data []byte) (*Rule, error) {
	var raw rawRule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rule %s: invalid yaml: %w", path, err)
	}

	if raw.ID == "" {
		return nil, fmt.Errorf("rule %s: missing required field `id`", path)
	}
	if raw.Query == "" {
		return nil, fmt.Errorf("rule %s: missing required field `query`", path)
	}

	level := Level(raw.LintLevel)
	switch level {
	case LevelDeny, LevelWarn, LevelAllow:
	case "":
		level = LevelDeny
	default:
		return nil, fmt.Errorf("rule %s: invalid lint_level %q, expected deny/warn/allow", path, raw.LintLevel)
	}

	update := RequiredUpdate(raw.RequiredUpdate)
	switch update {
	case UpdateMajor, UpdateMinor:
	default:
		return nil, fmt.Errorf("rule %s: invalid required_update %q, expected major/minor", path, raw.RequiredUpdate)
	}

	rq, err := query.Parse(raw.Query)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", path, err)
	}

	args, err := convertArguments(path, raw.Arguments)
	if err != nil {
		return nil, err
	}
	if err := checkArgumentCoverage(path, rq, args); err != nil {
		return nil, err
	}

	if raw.ErrorMessage == "" {
		return nil, fmt.Errorf("rule %s: missing required field `error_message`", path)
	}

	return &Rule{
		ID:                     raw.ID,
		HumanReadableName:      raw.HumanReadableName,
		Description:            raw.Description,
		Reference:              raw.Reference,
		RequiredUpdate:         update,
		LintLevel:              level,
		Arguments:              args,
		QuerySource:            raw.Query,
		Query:                  rq,
		ErrorMessage:           raw.ErrorMessage,
		PerResultErrorTemplate: raw.PerResultErrorTemplate,
		Witness:                raw.Witness,
		SourcePath:             path,
	}, nil
}

// convertArguments maps YAML scalar/list argument values onto query.Lit.
func convertArguments(path string, raw map[string]any) (query.Arguments, error) {
	out := make(query.Arguments, len(raw))
	for name, v := range raw {
		switch tv := v.(type) {
		case string:
			out[name] = query.Lit{Str: tv}
		case bool:
			out[name] = query.Lit{Bool: tv, IsBool: true}
		case int:
			out[name] = query.Lit{Int: int64(tv), IsInt: true}
		case int64:
			out[name] = query.Lit{Int: tv, IsInt: true}
		case []any:
			items := make([]string, len(tv))
			for i, e := range tv {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("rule %s: argument %q: list elements must be strings", path, name)
				}
				items[i] = s
			}
			out[name] = query.Lit{List: items, IsList: true}
		default:
			return nil, fmt.Errorf("rule %s: argument %q: unsupported value type %T", path, name, v)
		}
	}
	return out, nil
}

// checkArgumentCoverage rejects a rule whose query references an $arg the
// arguments map never declares (§4.1's static check; an undeclared
// argument would otherwise surface as a confusing evaluation-time fatal
// error instead of a load-time one).
func checkArgumentCoverage(path string, rq *query.RuleQuery, args query.Arguments) error {
	refs := map[string]bool{}
	collect(rq.Baseline.Root, refs)
	collect(rq.Current.Root, refs)
	for name := range refs {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("rule %s: query references undeclared argument $%s", path, name)
		}
	}
	return nil
}

func collect(n *query.Node, refs map[string]bool) {
	if n == nil {
		return
	}
	note := func(f *query.Filter) {
		if f != nil && f.Operand.Kind == query.OperandArg {
			refs[f.Operand.Name] = true
		}
	}
	for _, f := range n.Filters {
		note(f)
	}
	note(n.FoldFilter)
	for _, c := range n.Children {
		collect(c, refs)
	}
}

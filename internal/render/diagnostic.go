package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diagnostic is one rendered rule match: everything §6.3 requires a report
// consumer to see about a single finding.
type Diagnostic struct {
	RuleID             string `json:"rule_id"`
	HumanReadableName  string `json:"human_readable_name"`
	Description        string `json:"description,omitempty"`
	Reference          string `json:"reference,omitempty"`
	RequiredUpdate     string `json:"required_update"`
	LintLevel          string `json:"lint_level"`
	Message            string `json:"message"`
	WitnessHint        string `json:"witness_hint,omitempty"`
	ContextDiff        string `json:"context_diff,omitempty"`
	SpanFile           string `json:"span_file,omitempty"`
	SpanBeginLine      int    `json:"span_begin_line,omitempty"`
}

// UnifiedDiff renders a plain-text unified diff between a row's baseline and
// current span content, when both are present, for cosmetic context
// alongside the rendered message (§4.4 "added").
func UnifiedDiff(before, after, filename string, context int) string {
	if before == "" && after == "" {
		return ""
	}
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: filename,
		ToFile:   filename + " (current)",
		Context:  context,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return fmt.Sprintf("(diff error: %v)", err)
	}
	return text
}

// Report is the full output of a run: one Diagnostic per firing rule row,
// plus the load/compile problems collected along the way and the final
// pass/fail/warn/skip summary.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Problems    []Problem    `json:"problems,omitempty"`
	Passed      int          `json:"passed"`
	Failed      int          `json:"failed"`
	Warned      int          `json:"warned"`
	Skipped     int          `json:"skipped"`
	MaxRequiredUpdate string `json:"max_required_update,omitempty"`
}

// JSON renders the report as indented JSON, for machine consumption.
func (r Report) JSON() (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Human renders the report as the plain-text CLI report, grounded on the
// teacher's dual JSON/human CLI output.
func (r Report) Human() string {
	var b strings.Builder
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, "[%s] %s (%s, requires %s)\n", strings.ToUpper(d.LintLevel), d.RuleID, d.HumanReadableName, d.RequiredUpdate)
		fmt.Fprintf(&b, "  %s\n", d.Message)
		if d.Reference != "" {
			fmt.Fprintf(&b, "  reference: %s\n", d.Reference)
		}
		if d.WitnessHint != "" {
			fmt.Fprintf(&b, "  witness: %s\n", d.WitnessHint)
		}
		if d.ContextDiff != "" {
			fmt.Fprintf(&b, "%s\n", d.ContextDiff)
		}
	}
	for _, p := range r.Problems {
		fmt.Fprintf(&b, "[error] %s\n", p.Error())
	}
	fmt.Fprintf(&b, "\n%d passed, %d failed, %d warned, %d skipped\n", r.Passed, r.Failed, r.Warned, r.Skipped)
	if r.MaxRequiredUpdate != "" {
		fmt.Fprintf(&b, "required update: %s\n", r.MaxRequiredUpdate)
	}
	return b.String()
}

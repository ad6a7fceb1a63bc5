package runner

import (
	"strconv"

	"github.com/semverlint/semverlint/internal/engine"
	"github.com/semverlint/semverlint/internal/render"
	"github.com/semverlint/semverlint/internal/rule"
)

// Conventional output field names a rule's query may bind to enrich its
// diagnostic beyond the required per_result_error_template rendering: a
// span location for sort/report purposes, and before/after text for the
// optional diff context of §4.4.
const (
	outputSpanFile       = "span_file"
	outputSpanBeginLine  = "span_begin_line"
	outputDiffBefore     = "diff_before"
	outputDiffAfter      = "diff_after"
)

// buildDiagnostic renders one matched row into a render.Diagnostic, using
// the rule's per_result_error_template when present and falling back to
// its static error_message otherwise.
func buildDiagnostic(r *rule.Rule, row engine.Row, diffContext int) (render.Diagnostic, error) {
	tmpl := r.PerResultErrorTemplate
	if tmpl == "" {
		tmpl = r.ErrorMessage
	}
	renderRow := make(render.Row, len(row))
	for k, v := range row {
		renderRow[k] = v
	}

	msg, err := render.Render(tmpl, renderRow)
	if err != nil {
		return render.Diagnostic{}, err
	}

	d := render.Diagnostic{
		RuleID:            r.ID,
		HumanReadableName: r.HumanReadableName,
		Description:       r.Description,
		Reference:         r.Reference,
		RequiredUpdate:    string(r.RequiredUpdate),
		LintLevel:         string(r.LintLevel),
		Message:           msg,
	}

	if v, ok := row[outputSpanFile]; ok {
		d.SpanFile = v.AsString()
	}
	if v, ok := row[outputSpanBeginLine]; ok {
		if n, err := strconv.Atoi(v.AsString()); err == nil {
			d.SpanBeginLine = n
		}
	}

	if r.Witness.HintTemplate != "" {
		hint, err := render.Render(r.Witness.HintTemplate, renderRow)
		if err != nil {
			return render.Diagnostic{}, err
		}
		d.WitnessHint = hint
	}

	before, hasBefore := row[outputDiffBefore]
	after, hasAfter := row[outputDiffAfter]
	if hasBefore && hasAfter {
		d.ContextDiff = render.UnifiedDiff(before.AsString(), after.AsString(), d.SpanFile, diffContext)
	}

	return d, nil
}

// Package runner orchestrates a full lint pass: evaluating every loaded
// rule against a baseline/current graph pair across a bounded worker pool,
// rendering each matched row into a diagnostic, and aggregating the result
// into a Summary (§4.5, §5).
package runner

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/semverlint/semverlint/internal/engine"
	"github.com/semverlint/semverlint/internal/graph"
	"github.com/semverlint/semverlint/internal/render"
	"github.com/semverlint/semverlint/internal/rule"
)

// Summary is the aggregate result of a run, per §6.3.
type Summary struct {
	Passed            int
	Failed            int
	Warned            int
	Skipped           int
	MaxRequiredUpdate rule.RequiredUpdate
	HasMaxUpdate      bool
}

// Runner evaluates a fixed rule set against a graph pair.
type Runner struct {
	Rules      []*rule.Rule
	Workers    int
	DiffContext int
}

// New builds a Runner with a worker count derived from GOMAXPROCS, matching
// §5's "fans rule evaluation out across a bounded worker pool sized from
// runtime.GOMAXPROCS(0) by default."
func New(rules []*rule.Rule) *Runner {
	return &Runner{Rules: rules, Workers: runtime.GOMAXPROCS(0), DiffContext: 3}
}

// ruleOutcome is one rule's evaluation result, before ordering/aggregation.
type ruleOutcome struct {
	r        *rule.Rule
	rows     []engine.Row
	problem  *render.Problem
}

// Run evaluates every rule against baseline/current, in parallel, and
// returns the finished report. A per-rule evaluation failure becomes a
// render.Problem in the report rather than aborting the whole run (§7);
// only context cancellation propagated from the caller stops the run
// early, and even then partial results are returned with no error masked.
func (rn *Runner) Run(ctx context.Context, baseline, current *graph.Graph) (render.Report, error) {
	outcomes := make([]ruleOutcome, len(rn.Rules))

	g, gctx := errgroup.WithContext(ctx)
	workers := rn.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, r := range rn.Rules {
		i, r := i, r
		g.Go(func() error {
			rows, err := engine.Evaluate(gctx, r.Query, r.Arguments, baseline, current)
			if err != nil {
				if engine.IsCancelled(err) {
					return err
				}
				p := render.Wrap(render.ErrEvaluation, "rule "+r.ID+" failed to evaluate", err)
				outcomes[i] = ruleOutcome{r: r, problem: &p}
				return nil
			}
			outcomes[i] = ruleOutcome{r: r, rows: rows}
			return nil
		})
	}

	runErr := g.Wait()

	var diagnostics []render.Diagnostic
	var problems []render.Problem
	summary := Summary{}

	for _, oc := range outcomes {
		if oc.r == nil {
			continue // a goroutine never reached its slot (run cancelled mid-flight)
		}
		if oc.problem != nil {
			problems = append(problems, *oc.problem)
			summary.Skipped++
			continue
		}
		if len(oc.rows) == 0 {
			summary.Passed++
			continue
		}
		for _, row := range oc.rows {
			d, err := buildDiagnostic(oc.r, row, rn.DiffContext)
			if err != nil {
				problems = append(problems, render.Wrap(render.ErrInvalidTemplate, "rule "+oc.r.ID+" failed to render", err))
				continue
			}
			diagnostics = append(diagnostics, d)
		}
		switch oc.r.LintLevel {
		case rule.LevelDeny:
			summary.Failed++
		case rule.LevelWarn:
			summary.Warned++
		case rule.LevelAllow:
			summary.Skipped++
		}
		if !summary.HasMaxUpdate || oc.r.RequiredUpdate.AtLeastAsSevereAs(summary.MaxRequiredUpdate) {
			summary.MaxRequiredUpdate = oc.r.RequiredUpdate
			summary.HasMaxUpdate = true
		}
	}

	sort.SliceStable(diagnostics, func(i, j int) bool {
		a, b := diagnostics[i], diagnostics[j]
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.SpanFile != b.SpanFile {
			return a.SpanFile < b.SpanFile
		}
		return a.SpanBeginLine < b.SpanBeginLine
	})

	report := render.Report{
		Diagnostics: diagnostics,
		Problems:    problems,
		Passed:      summary.Passed,
		Failed:      summary.Failed,
		Warned:      summary.Warned,
		Skipped:     summary.Skipped,
	}
	if summary.HasMaxUpdate {
		report.MaxRequiredUpdate = string(summary.MaxRequiredUpdate)
	}

	if runErr != nil && engine.IsCancelled(runErr) {
		return report, runErr
	}
	return report, nil
}

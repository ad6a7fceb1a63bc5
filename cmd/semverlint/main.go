// Command semverlint compares two serialized API descriptions and reports
// whether the change requires a SemVer major or minor version bump,
// against a directory of declarative lint rules (§6.4).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/semverlint/semverlint/internal/graph"
	"github.com/semverlint/semverlint/internal/history"
	"github.com/semverlint/semverlint/internal/ingest"
	"github.com/semverlint/semverlint/internal/render"
	"github.com/semverlint/semverlint/internal/rule"
	"github.com/semverlint/semverlint/internal/runner"
)

// Exit codes, per §6.4: 0 = clean, 1 = warnings only, 2 = at least one
// Deny-level failure.
const (
	exitClean    = 0
	exitWarnings = 1
	exitFailure  = 2
)

func main() {
	_ = godotenv.Load() // best-effort; absent .env is not an error

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
}

type options struct {
	rulesDir    string
	rulePattern string
	jsonOutput  bool
	historyPath string
	diffContext int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "semverlint <baseline.json> <current.json>",
		Short: "Lint two API descriptions for SemVer-breaking changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], args[1], opts)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&opts.rulesDir, "rules", "rules", "directory of rule YAML files to load")
	cmd.Flags().StringVar(&opts.rulePattern, "rule-pattern", "", "glob pattern for rule file discovery (default: **/*.{yml,yaml})")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "emit the report as JSON instead of plain text")
	cmd.Flags().StringVar(&opts.historyPath, "history", "", "optional SQLite path to persist this run's summary to")
	cmd.Flags().IntVar(&opts.diffContext, "diff-context", 3, "lines of context around a rendered unified diff")

	return cmd
}

func run(ctx context.Context, baselinePath, currentPath string, opts *options) error {
	rules, loadErrs, err := rule.LoadDir(opts.rulesDir, opts.rulePattern)
	if err != nil {
		return render.Wrap(render.ErrInvalidRule, "loading rule directory", err)
	}

	baseline, err := loadGraph("baseline", baselinePath)
	if err != nil {
		return render.Wrap(render.ErrIngestion, "loading baseline graph", err)
	}
	current, err := loadGraph("current", currentPath)
	if err != nil {
		return render.Wrap(render.ErrIngestion, "loading current graph", err)
	}

	rn := runner.New(rules)
	rn.DiffContext = opts.diffContext
	report, err := rn.Run(ctx, baseline, current)
	if err != nil {
		return render.Wrap(render.ErrEvaluation, "run was cancelled before completing", err)
	}

	for _, le := range loadErrs {
		report.Problems = append(report.Problems, render.Wrap(render.ErrInvalidRule, "rule file failed to load", le))
	}

	if opts.historyPath != "" {
		if err := persistHistory(opts.historyPath, baselinePath, currentPath, report); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to record run history: %v\n", err)
		}
	}

	if opts.jsonOutput {
		out, err := report.JSON()
		if err != nil {
			return render.Wrap(render.ErrIO, "rendering json report", err)
		}
		fmt.Println(out)
	} else {
		fmt.Print(report.Human())
	}

	os.Exit(exitCodeFor(report))
	return nil
}

func loadGraph(name, path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := ingest.Read(f)
	if err != nil {
		return nil, err
	}
	return graph.New(name, src), nil
}

func exitCodeFor(report render.Report) int {
	switch {
	case report.Failed > 0:
		return exitFailure
	case report.Warned > 0:
		return exitWarnings
	default:
		return exitClean
	}
}

func persistHistory(path, baselinePath, currentPath string, report render.Report) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	rec := history.RunRecord{
		BaselineLabel:     baselinePath,
		CurrentLabel:      currentPath,
		Passed:            report.Passed,
		Failed:            report.Failed,
		Warned:            report.Warned,
		Skipped:           report.Skipped,
		MaxRequiredUpdate: report.MaxRequiredUpdate,
	}
	for _, d := range report.Diagnostics {
		rec.Findings = append(rec.Findings, history.FindingRecord{
			RuleID:         d.RuleID,
			LintLevel:      d.LintLevel,
			RequiredUpdate: d.RequiredUpdate,
			Message:        d.Message,
			SpanFile:       d.SpanFile,
			SpanBeginLine:  d.SpanBeginLine,
		})
	}
	_, err = store.Save(rec)
	return err
}

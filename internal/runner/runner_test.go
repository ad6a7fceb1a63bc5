package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semverlint/semverlint/internal/graph"
	"github.com/semverlint/semverlint/internal/rule"
)

type fakeSource struct{ items []graph.Vertex }

func (f fakeSource) Root() []graph.Vertex { return f.items }

func newFunction(name string, deprecated, unsafeFn bool) *graph.Item {
	return graph.NewItem("Function", map[string]graph.Value{
		"name":       graph.String(name),
		"deprecated": graph.Bool(deprecated),
		"unsafe":     graph.Bool(unsafeFn),
	})
}

const denyRuleYAML = `
id: fn_became_unsafe
required_update: major
lint_level: deny
query: |
  baseline $ { item { ... on Function { name @tag @output unsafe @filter(eq, false) } } }
  current $ { item { ... on Function { name @filter(eq, %name) unsafe @filter(eq, true) } } }
error_message: "function {{name}} became unsafe"
`

const warnRuleYAML = `
id: fn_deprecated
required_update: minor
lint_level: warn
query: |
  baseline $ { item { ... on Function { name @tag deprecated @filter(eq, false) } } }
  current $ { item { ... on Function { name @filter(eq, %name) deprecated @output @filter(eq, true) } } }
error_message: "function {{name}} became deprecated"
`

func mustParse(t *testing.T, src string) *rule.Rule {
	t.Helper()
	r, err := rule.Parse("inline.yaml", []byte(src))
	require.NoError(t, err)
	return r
}

func TestRunnerAggregatesSummaryAcrossRules(t *testing.T) {
	denyRule := mustParse(t, denyRuleYAML)
	warnRule := mustParse(t, warnRuleYAML)

	baseline := graph.New("baseline", fakeSource{items: []graph.Vertex{
		newFunction("connect", false, false),
		newFunction("disconnect", false, false),
	}})
	current := graph.New("current", fakeSource{items: []graph.Vertex{
		newFunction("connect", false, true),
		newFunction("disconnect", true, false),
	}})

	rn := New([]*rule.Rule{denyRule, warnRule})
	report, err := rn.Run(context.Background(), baseline, current)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Warned)
	assert.Equal(t, "major", report.MaxRequiredUpdate)
	require.Len(t, report.Diagnostics, 2)
	assert.Equal(t, "fn_became_unsafe", report.Diagnostics[0].RuleID)
	assert.Equal(t, "fn_deprecated", report.Diagnostics[1].RuleID)
	assert.Contains(t, report.Diagnostics[0].Message, "connect")
}

func TestRunnerCleanRunReportsPassed(t *testing.T) {
	denyRule := mustParse(t, denyRuleYAML)

	baseline := graph.New("baseline", fakeSource{items: []graph.Vertex{newFunction("connect", false, false)}})
	current := graph.New("current", fakeSource{items: []graph.Vertex{newFunction("connect", false, false)}})

	rn := New([]*rule.Rule{denyRule})
	report, err := rn.Run(context.Background(), baseline, current)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.Diagnostics)
}

func TestRunnerEvaluationErrorBecomesProblemNotFailure(t *testing.T) {
	badRule := mustParse(t, `
id: bad_tag
required_update: minor
query: |
  baseline $ { item { ... on Function { name @filter(eq, %nope) } } }
  current $ { item { ... on Function { name @tag } } }
error_message: "x"
`)

	baseline := graph.New("baseline", fakeSource{items: []graph.Vertex{newFunction("connect", false, false)}})
	current := graph.New("current", fakeSource{items: []graph.Vertex{newFunction("connect", false, false)}})

	rn := New([]*rule.Rule{badRule})
	report, err := rn.Run(context.Background(), baseline, current)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Problems, 1)
	assert.Contains(t, report.Problems[0].Error(), "bad_tag")
}

package rule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalRule = `
id: %s
required_update: minor
query: |
  baseline $ { item { ... on Function { name @tag } } }
  current $ { item { ... on Function { name @filter(eq, %%name) } } }
error_message: "x"
`

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestLoadDirParsesAllRulesInDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_rule.yaml", sprintfRule("rule_b"))
	writeFile(t, dir, "nested/a_rule.yaml", sprintfRule("rule_a"))
	writeFile(t, dir, "README.md", "not a rule")

	rules, loadErrs, err := LoadDir(dir, "")
	require.NoError(t, err)
	assert.Empty(t, loadErrs)
	require.Len(t, rules, 2)
	// lexical path order: "b_rule.yaml" sorts before "nested/a_rule.yaml"
	assert.Equal(t, "rule_b", rules[0].ID)
	assert.Equal(t, "rule_a", rules[1].ID)
}

func TestLoadDirCollectsPerFileErrorsWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", sprintfRule("good_rule"))
	writeFile(t, dir, "bad.yaml", "not: [valid, yaml: structure")

	rules, loadErrs, err := LoadDir(dir, "")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "good_rule", rules[0].ID)
	require.Len(t, loadErrs, 1)
	assert.Contains(t, loadErrs[0].Path, "bad.yaml")
}

func TestLoadDirRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", sprintfRule("dup"))
	writeFile(t, dir, "b.yaml", sprintfRule("dup"))

	rules, loadErrs, err := LoadDir(dir, "")
	require.NoError(t, err)
	assert.Len(t, rules, 1)
	require.Len(t, loadErrs, 1)
	assert.Contains(t, loadErrs[0].Err.Error(), "duplicate rule id")
}

func sprintfRule(id string) string {
	return "id: " + id + "\nrequired_update: minor\nquery: |\n  baseline $ { item { ... on Function { name @tag } } }\n  current $ { item { ... on Function { name @filter(eq, %name) } } }\nerror_message: \"x\"\n"
}

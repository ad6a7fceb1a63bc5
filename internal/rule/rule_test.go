package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRuleYAML = `
id: enum_no_repr_variant_discriminant_changed
human_readable_name: enum variant discriminant changed
description: A fieldless enum's variant discriminant changed without a repr attribute.
reference: https://example.invalid/rules/discriminant-changed
required_update: major
lint_level: deny
query: |
  baseline $ {
      item {
          ... on Enum {
              name @tag
              variant {
                  ... on PlainVariant {
                      name @tag(variant_name) @output
                      discriminant {
                          value @tag(old_value) @output
                      }
                  }
              }
          }
      }
  }
  current $ {
      item {
          ... on Enum {
              name @filter(eq, %name)
              variant {
                  ... on PlainVariant {
                      name @filter(eq, %variant_name)
                      discriminant {
                          value @tag(new_value) @output @filter(ne, %old_value)
                      }
                  }
              }
          }
      }
  }
error_message: "enum variant {{variant_name}} discriminant changed from {{old_value}} to {{new_value}}"
`

func TestParseValidRule(t *testing.T) {
	r, err := Parse("discriminant.yaml", []byte(validRuleYAML))
	require.NoError(t, err)
	assert.Equal(t, "enum_no_repr_variant_discriminant_changed", r.ID)
	assert.Equal(t, UpdateMajor, r.RequiredUpdate)
	assert.Equal(t, LevelDeny, r.LintLevel)
	require.NotNil(t, r.Query.Baseline)
	require.NotNil(t, r.Query.Current)
}

func TestParseDefaultsLintLevelToDeny(t *testing.T) {
	src := `
id: x
required_update: minor
query: |
  baseline $ { item { ... on Function { name @tag } } }
  current $ { item { ... on Function { name @filter(eq, %name) } } }
error_message: "x changed"
`
	r, err := Parse("x.yaml", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, LevelDeny, r.LintLevel)
}

func TestParseRejectsMissingID(t *testing.T) {
	_, err := Parse("bad.yaml", []byte(`
required_update: minor
query: |
  baseline $ { item { ... on Function { name @tag } } }
  current $ { item { ... on Function { name @filter(eq, %name) } } }
error_message: "x"
`))
	assert.Error(t, err)
}

func TestParseRejectsBadLintLevel(t *testing.T) {
	_, err := Parse("bad.yaml", []byte(`
id: x
required_update: minor
lint_level: catastrophic
query: |
  baseline $ { item { ... on Function { name @tag } } }
  current $ { item { ... on Function { name @filter(eq, %name) } } }
error_message: "x"
`))
	assert.Error(t, err)
}

func TestParseRejectsUndeclaredArgument(t *testing.T) {
	_, err := Parse("bad.yaml", []byte(`
id: x
required_update: minor
query: |
  baseline $ { item { ... on Function { name @filter(eq, $threshold) } } }
  current $ { item { ... on Function { name @tag } } }
error_message: "x"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared argument")
}

func TestParseAcceptsDeclaredArgument(t *testing.T) {
	src := `
id: x
required_update: minor
arguments:
  threshold: "public"
query: |
  baseline $ { item { ... on Function { visibility_limit @filter(eq, $threshold) name @tag } } }
  current $ { item { ... on Function { name @filter(eq, %name) } } }
error_message: "x"
`
	r, err := Parse("x.yaml", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "public", r.Arguments["threshold"].Str)
}

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const discriminantQuery = `
baseline $ {
    item {
        ... on Enum {
            name @tag
            visibility_limit @filter(eq, "public")
            attrs @filter(not_contains, "#[non_exhaustive]")
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
`

func TestParseDiscriminantQuery(t *testing.T) {
	rq, err := Parse(discriminantQuery)
	require.NoError(t, err)
	require.NotNil(t, rq.Baseline)
	require.NotNil(t, rq.Current)

	itemNode := rq.Baseline.Root
	assert.Equal(t, NodeEdge, itemNode.Type)
	assert.Equal(t, "item", itemNode.Edge)
	require.Len(t, itemNode.Children, 1)

	refine := itemNode.Children[0]
	assert.Equal(t, NodeRefine, refine.Type)
	assert.Equal(t, "Enum", refine.RefineKind)

	var nameNode, variantNode *Node
	for _, c := range refine.Children {
		switch {
		case c.Type == NodeProp && c.Prop == "name":
			nameNode = c
		case c.Type == NodeEdge && c.Edge == "variant":
			variantNode = c
		}
	}
	require.NotNil(t, nameNode)
	assert.Equal(t, "name", nameNode.Tag)

	require.NotNil(t, variantNode)
	require.Len(t, variantNode.Children, 1)
	variantRefine := variantNode.Children[0]
	assert.Equal(t, "PlainVariant", variantRefine.RefineKind)
}

func TestParseFoldWithCountAndFilter(t *testing.T) {
	src := `
baseline $ {
    item {
        ... on Trait {
            name @tag
        }
    }
}
current $ {
    item {
        ... on Trait {
            name @filter(eq, %name)
            method @fold @transform(count) @filter(gt, 0) {
                deprecated @filter(eq, false)
            }
        }
    }
}
`
	rq, err := Parse(src)
	require.NoError(t, err)

	refine := rq.Current.Root.Children[0]
	var method *Node
	for _, c := range refine.Children {
		if c.Edge == "method" {
			method = c
		}
	}
	require.NotNil(t, method)
	assert.True(t, method.Fold)
	assert.Equal(t, "count", method.Transform)
	require.NotNil(t, method.FoldFilter)
	assert.Equal(t, OpGt, method.FoldFilter.Op)
	require.Len(t, method.Children, 1)
}

func TestParseRequiresBothScopes(t *testing.T) {
	_, err := Parse(`baseline $ { item { name @tag } }`)
	assert.Error(t, err)
}

func TestParseRejectsUnknownScopeName(t *testing.T) {
	_, err := Parse(`
baseline $ { item { name @tag } }
current $ { item { name @filter(eq, %name) } }
weird $ { item { name @tag } }
`)
	assert.Error(t, err)
}

func TestParseOptionalEdge(t *testing.T) {
	src := `
baseline $ {
    item {
        ... on Function {
            name @tag
            requires_feature @optional {
                name @output
            }
        }
    }
}
current $ {
    item {
        ... on Function {
            name @filter(eq, %name)
        }
    }
}
`
	rq, err := Parse(src)
	require.NoError(t, err)
	refine := rq.Baseline.Root.Children[0]
	var rf *Node
	for _, c := range refine.Children {
		if c.Edge == "requires_feature" {
			rf = c
		}
	}
	require.NotNil(t, rf)
	assert.True(t, rf.Optional)
}

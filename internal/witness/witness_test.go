package witness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAcceptsWellFormedSnippet(t *testing.T) {
	ok, err := Check(context.Background(), "func example() { x := 1; _ = x }")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckFlagsMalformedSnippet(t *testing.T) {
	ok, err := Check(context.Background(), "func example( { this is not go")
	require.NoError(t, err)
	assert.False(t, ok)
}

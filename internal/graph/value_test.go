package graph

import "testing"

import "github.com/stretchr/testify/assert"

func TestValueEqualNormalizesDiscriminants(t *testing.T) {
	assert.True(t, Equal(String("1"), String("0x1")))
	assert.True(t, Equal(String("0x10"), String("16")))
	assert.False(t, Equal(String("1"), String("2")))
}

func TestValueEqualNullOnlyEqualsNull(t *testing.T) {
	assert.True(t, Equal(Null, Null))
	assert.False(t, Equal(Null, String("")))
	assert.False(t, Equal(String(""), Null))
}

func TestCompareFallsBackToLexicographic(t *testing.T) {
	assert.Equal(t, -1, Compare(String("abc"), String("abd")))
	assert.Equal(t, 0, Compare(String("abc"), String("abc")))
	assert.True(t, Compare(String("2"), String("10")) < 0, "numeric comparison should treat 2 < 10")
	assert.True(t, Compare(String("b"), String("a")) > 0)
}

func TestContainsStringAndList(t *testing.T) {
	assert.True(t, Contains(String("#[non_exhaustive]"), String("non_exhaustive")))
	assert.False(t, Contains(String("#[inline]"), String("non_exhaustive")))

	list := List([]Value{String("a"), String("b")})
	assert.True(t, Contains(list, String("a")))
	assert.False(t, Contains(list, String("c")))
}

func TestValueAsList(t *testing.T) {
	assert.Equal(t, []Value{String("x")}, String("x").AsList())
	assert.Nil(t, Null.AsList())
}

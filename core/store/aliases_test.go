package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliasExpand(t *testing.T) {
	a := NewAliases()
	require.NoError(t, a.Set("ll", "ls -l"))

	assert.Equal(t, "ls -l -a", a.Expand("ll -a"))
	assert.Equal(t, "ls -l", a.Expand("ll"))
}

func TestAliasExpandNoMatch(t *testing.T) {
	a := NewAliases()
	require.NoError(t, a.Set("ll", "ls -l"))

	// Expansion of a non-aliased first word is a no-op.
	assert.Equal(t, "grep ll", a.Expand("grep ll"))
	assert.Equal(t, "", a.Expand(""))
	assert.Equal(t, "   ", a.Expand("   "))
}

func TestAliasSinglePass(t *testing.T) {
	a := NewAliases()
	require.NoError(t, a.Set("x", "y"))
	require.NoError(t, a.Set("y", "z"))

	// One expansion pass, no recursion.
	assert.Equal(t, "y", a.Expand("x"))
}

func TestAliasInvalidName(t *testing.T) {
	a := NewAliases()
	assert.Error(t, a.Set("", "x"))
	assert.Error(t, a.Set("a=b", "x"))
}

func TestAliasUnset(t *testing.T) {
	a := NewAliases()
	require.NoError(t, a.Set("ll", "ls -l"))

	assert.True(t, a.Unset("ll"))
	assert.False(t, a.Unset("ll"))
	assert.Equal(t, "ll", a.Expand("ll"))
}

func TestAliasNames(t *testing.T) {
	a := NewAliases()
	require.NoError(t, a.Set("zz", "1"))
	require.NoError(t, a.Set("aa", "2"))

	assert.Equal(t, []string{"aa", "zz"}, a.Names())
}

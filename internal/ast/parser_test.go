package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiterals(t *testing.T) {
	roots, perr := Parse(`42 "hi" x`)
	require.Nil(t, perr)
	require.Len(t, roots, 3)

	assert.Equal(t, Integer, roots[0].Kind)
	assert.Equal(t, int64(42), roots[0].Int)

	assert.Equal(t, String, roots[1].Kind)
	assert.Equal(t, "hi", roots[1].Str)

	assert.Equal(t, Symbol, roots[2].Kind)
	assert.Equal(t, "x", roots[2].Name)
}

func TestParseList(t *testing.T) {
	roots, perr := Parse(`(+ 1 2)`)
	require.Nil(t, perr)
	require.Len(t, roots, 1)

	n := roots[0]
	assert.Equal(t, List, n.Kind)
	assert.Equal(t, "(+ 1 2)", n.Snippet)
	require.Len(t, n.Children, 3)
	assert.Equal(t, "+", n.Children[0].Name)
	assert.Equal(t, int64(1), n.Children[1].Int)
	assert.Equal(t, int64(2), n.Children[2].Int)
}

func TestParseMultipleRootsAndLines(t *testing.T) {
	src := "(def x 2)\n(def y (* x 3))\n(+ x y)"
	roots, perr := Parse(src)
	require.Nil(t, perr)
	require.Len(t, roots, 3)
	assert.Equal(t, 1, roots[0].Line)
	assert.Equal(t, 2, roots[1].Line)
	assert.Equal(t, 3, roots[2].Line)
}

func TestParseUnterminatedList(t *testing.T) {
	_, perr := Parse(`(+ 1 2`)
	require.NotNil(t, perr)
	assert.Equal(t, "parse", perr.Kind.String())
}

func TestParseUnmatchedCloseParen(t *testing.T) {
	_, perr := Parse(`(+ 1 2))`)
	require.NotNil(t, perr)
}

func TestParseEmptyFile(t *testing.T) {
	roots, perr := Parse("")
	require.Nil(t, perr)
	assert.Empty(t, roots)
}

func TestParseStringEscapes(t *testing.T) {
	roots, perr := Parse(`"a\nb\"c"`)
	require.Nil(t, perr)
	require.Len(t, roots, 1)
	assert.Equal(t, "a\nb\"c", roots[0].Str)
}

func TestParseComment(t *testing.T) {
	roots, perr := Parse("; a comment\n(+ 1 2) ; trailing\n")
	require.Nil(t, perr)
	require.Len(t, roots, 1)
}

func TestParseNegativeInteger(t *testing.T) {
	roots, perr := Parse(`-5`)
	require.Nil(t, perr)
	require.Len(t, roots, 1)
	assert.Equal(t, Integer, roots[0].Kind)
	assert.Equal(t, int64(-5), roots[0].Int)
}

func TestParseEmptyList(t *testing.T) {
	roots, perr := Parse(`()`)
	require.Nil(t, perr)
	require.Len(t, roots, 1)
	assert.Equal(t, List, roots[0].Kind)
	assert.Empty(t, roots[0].Children)
}

package scope

import (
	"testing"

	"github.com/agentic-research/garden/internal/graph"
	"github.com/stretchr/testify/assert"
)

func idOf(b byte) graph.ID {
	var id graph.ID
	id[0] = b
	return id
}

func TestResolveUnbound(t *testing.T) {
	e := NewRoot()
	_, ok := e.Resolve("x")
	assert.False(t, ok)
}

func TestBindAndResolve(t *testing.T) {
	e := NewRoot()
	e.Bind("x", idOf(1))
	id, ok := e.Resolve("x")
	assert.True(t, ok)
	assert.Equal(t, idOf(1), id)
}

func TestExtendShadowsWithoutMutatingParent(t *testing.T) {
	outer := NewRoot()
	outer.Bind("a", idOf(1))

	inner := outer.ExtendWith("a", idOf(2))

	id, ok := inner.Resolve("a")
	assert.True(t, ok)
	assert.Equal(t, idOf(2), id)

	id, ok = outer.Resolve("a")
	assert.True(t, ok)
	assert.Equal(t, idOf(1), id, "extending a child frame must not mutate the parent")
}

func TestResolveWalksOutward(t *testing.T) {
	outer := NewRoot()
	outer.Bind("a", idOf(1))
	inner := outer.Extend()
	inner.Bind("b", idOf(2))

	id, ok := inner.Resolve("a")
	assert.True(t, ok)
	assert.Equal(t, idOf(1), id)
}

func TestRedefineInSameFrameWins(t *testing.T) {
	e := NewRoot()
	e.Bind("x", idOf(1))
	e.Bind("x", idOf(2))
	id, ok := e.Resolve("x")
	assert.True(t, ok)
	assert.Equal(t, idOf(2), id)
}

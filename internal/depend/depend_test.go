package depend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopRoundTrip(t *testing.T) {
	g := New()
	g.Grow(3)

	require.True(t, g.Push(0, 1))
	require.True(t, g.Push(1, 2))
	assert.True(t, g.Precedes(0, 2), "transitive closure must chain 0->1->2")

	g.Pop()
	assert.False(t, g.Precedes(1, 2))
	assert.True(t, g.Precedes(0, 1))

	g.Pop()
	assert.False(t, g.Precedes(0, 1))
}

func TestPushRejectsCycle(t *testing.T) {
	g := New()
	g.Grow(2)

	require.True(t, g.Push(0, 1))
	ok := g.Push(1, 0)
	assert.False(t, ok, "introducing a cycle must be rejected")
	assert.False(t, g.Precedes(1, 0), "a rejected push must leave the graph untouched")
	assert.True(t, g.Precedes(0, 1))
}

func TestZombiePushNoCycleCheck(t *testing.T) {
	g := New()
	g.Grow(3)
	require.True(t, g.Push(0, 1))
	require.True(t, g.Push(1, 2))
	// 0->2 is already implied by transitive closure: a zombie push.
	require.True(t, g.Push(0, 2))
	// popping the zombie frame must not disturb the real edges.
	g.Pop()
	assert.True(t, g.Precedes(0, 2), "still implied via 0->1->2")
	assert.True(t, g.Precedes(1, 2))
}

func TestGrowShrinkPreservesEdges(t *testing.T) {
	g := New()
	g.Grow(2)
	require.True(t, g.Push(0, 1))

	g.Grow(2) // simulate allocating a new run
	assert.Equal(t, 4, g.Size())
	assert.True(t, g.Precedes(0, 1))

	g.Shrink(2) // retract the new run
	assert.Equal(t, 2, g.Size())
	assert.True(t, g.Precedes(0, 1))
}

func TestIndexTracksRunBases(t *testing.T) {
	ix := NewIndex()
	base0 := ix.AddRun(3)
	base1 := ix.AddRun(2)
	assert.Equal(t, 0, base0)
	assert.Equal(t, 3, base1)
	assert.Equal(t, 5, ix.NodeCount())
	assert.Equal(t, 4, Node(base1, 1))

	ix.DropLastRun(2)
	assert.Equal(t, 3, ix.NodeCount())
}

package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translated(name string, x, y, z float32) Node {
	tr := Identity()
	tr.Translate = mgl32.Vec3{x, y, z}
	return Node{Name: name, Transform: tr}
}

func TestFlatComposesParentFirst(t *testing.T) {
	g := NewGraph()
	root := g.Add(translated("root", 1, 0, 0))
	arm := g.Add(Node{Name: "arm", Transform: Transform{
		Translate: mgl32.Vec3{0, 2, 0},
		Rotate:    mgl32.QuatIdent(),
		Scale:     mgl32.Vec3{2, 2, 2},
	}})
	hand := g.Add(translated("hand", 0, 0, 1))
	require.NoError(t, g.Connect(root, arm))
	require.NoError(t, g.Connect(arm, hand))
	require.NoError(t, g.Validate())

	world := g.Flat()
	require.Len(t, world, 3)

	origin := mgl32.Vec4{0, 0, 0, 1}
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, world[root].Mul4x1(origin))
	assert.Equal(t, mgl32.Vec4{1, 2, 0, 1}, world[arm].Mul4x1(origin))
	// The arm's scale applies to the hand's offset.
	assertNear(t, mgl32.Vec4{1, 2, 2, 1}, world[hand].Mul4x1(origin), 1e-6)
}

func TestFlatReflectsMutation(t *testing.T) {
	g := NewGraph()
	root := g.Add(translated("root", 0, 0, 0))
	child := g.Add(translated("child", 1, 0, 0))
	require.NoError(t, g.Connect(root, child))

	assert.Equal(t, float32(1), g.Flat()[child].Col(3).X())
	g.Node(root).Transform.Translate = mgl32.Vec3{10, 0, 0}
	assert.Equal(t, float32(11), g.Flat()[child].Col(3).X())
}

func TestConnectRejectsNonTreeEdges(t *testing.T) {
	g := NewGraph()
	a := g.Add(Node{Name: "a"})
	b := g.Add(Node{Name: "b"})
	c := g.Add(Node{Name: "c"})
	require.NoError(t, g.Connect(a, b))
	require.NoError(t, g.Connect(b, c))

	assert.ErrorIs(t, g.Connect(a, 9), ErrNodeRange)
	assert.ErrorIs(t, g.Connect(b, b), ErrSelfEdge)
	assert.ErrorIs(t, g.Connect(c, a), ErrRootChild)
	assert.ErrorIs(t, g.Connect(a, c), ErrSecondParent)

	// x is detached, so connecting its descendant above it closes a loop.
	x := g.Add(Node{Name: "x"})
	y := g.Add(Node{Name: "y"})
	require.NoError(t, g.Connect(x, y))
	assert.ErrorIs(t, g.Connect(y, x), ErrCycle)
	assert.ErrorIs(t, g.Validate(), ErrUnreachable)

	require.NoError(t, g.Connect(c, x))
	assert.NoError(t, g.Validate())
}

func TestValidateEmptyGraph(t *testing.T) {
	assert.ErrorIs(t, NewGraph().Validate(), ErrEmptyGraph)
	assert.Empty(t, NewGraph().Flat())
}

func TestNodeOutOfRangePanics(t *testing.T) {
	g := NewGraph()
	g.Add(Node{Name: "root"})
	assert.Panics(t, func() { g.Node(1) })
}

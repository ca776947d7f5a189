package animator

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/phantoma/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ramp builds a graph with one animated node and a translate channel whose keyframe k is (k, 0, 0).
func ramp(t *testing.T, name string, frames int) (*scene.Graph, scene.NodeIndex, scene.Animation) {
	t.Helper()
	g := scene.NewGraph()
	root := g.Add(scene.Node{Name: "root", Transform: scene.Identity()})
	n := g.Add(scene.Node{Name: "n", Transform: scene.Identity()})
	require.NoError(t, g.Connect(root, n))

	ch := make(scene.TranslateChannel, frames)
	for k := range ch {
		ch[k] = mgl32.Vec3{float32(k), 0, 0}
	}
	return g, n, scene.NewAnimation(name, scene.Track{Node: n, Channel: ch})
}

func TestLoopingWrapsAroundTheClock(t *testing.T) {
	g, n, anim := ramp(t, "X", 60)
	a := NewAnimator([]scene.Animation{anim})

	a.Play(0, true, "X")
	a.Update(2.0, g)
	assert.True(t, a.State("X").Playing)

	// 120 keyframes elapsed over a 59-interval channel.
	fraction := math.Mod(120.0/59.0, 1)
	assert.InDelta(t, fraction*59, g.Node(n).Transform.Translate.X(), 1e-3)

	a.Update(1.0, g)
	assert.InDelta(t, math.Mod(60.0/59.0, 1)*59, g.Node(n).Transform.Translate.X(), 1e-3)
}

func TestLoopSeamIsContinuousForClosedLoops(t *testing.T) {
	g := scene.NewGraph()
	n := g.Add(scene.Node{Name: "n", Transform: scene.Identity()})
	ch := make(scene.TranslateChannel, 60)
	for k := range ch {
		// One full period; the last keyframe repeats the first.
		angle := 2 * math.Pi * float64(k) / 59
		ch[k] = mgl32.Vec3{float32(math.Cos(angle)), float32(math.Sin(angle)), 0}
	}
	anim := scene.NewAnimation("circle", scene.Track{Node: n, Channel: ch})

	anim.Apply(0.99999, g)
	end := g.Node(n).Transform.Translate
	anim.Apply(0, g)
	start := g.Node(n).Transform.Translate
	assertNear(t, start, end, 1e-3, "seam %v vs %v", end, start)
}

func TestNonLoopingStopsAtTheEnd(t *testing.T) {
	g, n, anim := ramp(t, "once", 60)
	a := NewAnimator([]scene.Animation{anim})

	a.Play(10, false, "once")
	a.Update(10.5, g)
	assert.InDelta(t, 30, g.Node(n).Transform.Translate.X(), 1e-3)
	assert.True(t, a.State("once").Playing)

	a.Update(11.5, g)
	assert.False(t, a.State("once").Playing)
	// The finishing tick is skipped, so the node keeps its last pose.
	assert.InDelta(t, 30, g.Node(n).Transform.Translate.X(), 1e-3)
}

func TestStopAndRestart(t *testing.T) {
	g, n, anim := ramp(t, "X", 60)
	a := NewAnimator([]scene.Animation{anim})

	a.Update(5, g)
	assert.Equal(t, float32(0), g.Node(n).Transform.Translate.X(), "stopped animations are not applied")

	a.Play(1, true, "X")
	a.Stop("X")
	assert.Equal(t, State{Playing: false, Looping: true, Start: 1}, a.State("X"))

	a.Play(4, false, "X")
	a.Update(4, g)
	assert.Equal(t, float32(0), g.Node(n).Transform.Translate.X())
}

func TestShortAnimations(t *testing.T) {
	g, n, _ := ramp(t, "unused", 2)
	pose := scene.NewAnimation("pose", scene.Track{Node: n, Channel: scene.ScaleChannel{{2, 2, 2}}})
	a := NewAnimator([]scene.Animation{pose})

	a.Play(0, false, "pose")
	a.Update(3, g)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, g.Node(n).Transform.Scale)
	assert.False(t, a.State("pose").Playing)
}

func TestLaterAnimationsWin(t *testing.T) {
	g, n, first := ramp(t, "first", 60)
	second := scene.NewAnimation("second", scene.Track{Node: n, Channel: scene.TranslateChannel{{-1, 0, 0}, {-1, 0, 0}}})
	a := NewAnimator([]scene.Animation{first, second}, WithSampleRate(30))
	assert.Equal(t, []string{"first", "second"}, a.Names())

	a.Play(0, true, "first")
	a.Play(0, true, "second")
	a.Update(0.5, g)
	assert.Equal(t, float32(-1), g.Node(n).Transform.Translate.X())
}

func TestUnknownNamePanics(t *testing.T) {
	a := NewAnimator(nil)
	assert.PanicsWithValue(t, `animator: unknown animation "nope"`, func() { a.Play(0, true, "nope") })
	assert.Panics(t, func() { a.Stop("nope") })
	assert.Panics(t, func() { a.State("nope") })
}

func assertNear(t *testing.T, want, got mgl32.Vec3, delta float64, msgAndArgs ...any) bool {
	t.Helper()
	return assert.InDeltaSlice(t, want[:], got[:], delta, msgAndArgs...)
}

package scene

import (
	"math"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Channel is an evenly spaced sequence of keyframes for one transform property.
// The variants are TranslateChannel, RotateChannel and ScaleChannel.
type Channel interface {
	// Len returns the number of keyframes.
	Len() int

	// sample writes the interpolation between keyframes i and j at t in [0, 1] into tr.
	sample(i, j int, t float32, tr *Transform)
}

// TranslateChannel animates Transform.Translate with linear interpolation.
type TranslateChannel []mgl32.Vec3

// RotateChannel animates Transform.Rotate with shortest-arc spherical interpolation.
type RotateChannel []mgl32.Quat

// ScaleChannel animates Transform.Scale with linear interpolation.
type ScaleChannel []mgl32.Vec3

var _ Channel = TranslateChannel(nil)
var _ Channel = RotateChannel(nil)
var _ Channel = ScaleChannel(nil)

func lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Slerp interpolates from a to b along the shorter arc.
func Slerp(a, b mgl32.Quat, t float32) mgl32.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	if t == 0 {
		return a.Normalize()
	}
	return mgl32.QuatSlerp(a, b, t)
}

func (c TranslateChannel) Len() int { return len(c) }

func (c TranslateChannel) sample(i, j int, t float32, tr *Transform) {
	tr.Translate = lerp(c[i], c[j], t)
}

func (c RotateChannel) Len() int { return len(c) }

func (c RotateChannel) sample(i, j int, t float32, tr *Transform) {
	tr.Rotate = Slerp(c[i], c[j], t)
}

func (c ScaleChannel) Len() int { return len(c) }

func (c ScaleChannel) sample(i, j int, t float32, tr *Transform) {
	tr.Scale = lerp(c[i], c[j], t)
}

// Track binds a channel to the node it animates.
type Track struct {
	Channel Channel
	Node    NodeIndex
}

// Animation is a named set of tracks. Len is the longest channel's keyframe count and marks the end of
// playback.
type Animation struct {
	Name   string
	Tracks []Track
	Len    int
}

// NewAnimation builds an animation and derives Len from its tracks.
func NewAnimation(name string, tracks ...Track) Animation {
	a := Animation{Name: name, Tracks: tracks}
	for _, tr := range tracks {
		a.Len = max(a.Len, tr.Channel.Len())
	}
	return a
}

// Apply samples every track at fraction (0 = first keyframe, 1 = last) and writes the result into the
// animated nodes. Overlapping tracks on the same node property overwrite each other in track order.
//
// Parameters:
//   - fraction: the playback position, clamped to [0, 1]
//   - g: the graph whose nodes are written
func (a *Animation) Apply(fraction float32, g *Graph) {
	fraction = common.Clamp(fraction, 0, 1)
	for _, tr := range a.Tracks {
		n := tr.Channel.Len()
		if n == 0 {
			continue
		}
		node := g.Node(tr.Node)
		if n == 1 {
			tr.Channel.sample(0, 0, 0, &node.Transform)
			continue
		}

		pos := fraction * float32(n-1)
		i := min(int(math.Floor(float64(pos))), n-2)
		tr.Channel.sample(i, i+1, pos-float32(i), &node.Transform)
	}
}

// Package sketch defines the show-level contract: stages that initialize once, react to input, update their
// state every tick and record their passes into the frame.
package sketch

import (
	"log/slog"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/audio"
	"github.com/Carmen-Shannon/phantoma/engine/midi"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/pass"
	"github.com/cogentcore/webgpu/wgpu"
)

// Context is what the frame loop hands to a stage. It is rebuilt every tick; stages must not keep it.
type Context struct {
	// Surface builds passes against the presentation format and size.
	Surface pass.Surface

	Width  int
	Height int

	// T is the time since the loop started and Dt the time since the previous tick, in seconds.
	T  float32
	Dt float32

	// Tick counts frames since the loop started.
	Tick uint64

	// Audio is the newest analysis, or nil when no audio source is present.
	Audio audio.Snapshot

	// MIDI is the controller, or nil when none is present.
	MIDI midi.Device

	Logger *slog.Logger
}

// Aspect returns Width/Height, or 1 for an empty surface.
func (c *Context) Aspect() float32 {
	if c.Width <= 0 || c.Height <= 0 {
		return 1
	}
	return float32(c.Width) / float32(c.Height)
}

// InputKind tells which field of an Input is set.
type InputKind int

const (
	KeyDown InputKind = iota
	KeyUp
	Resize
	Controller
)

// Input is one event delivered to a stage between ticks.
type Input struct {
	Kind   InputKind
	Key    common.Key
	Width  int
	Height int
	MIDI   midi.Input
}

// Stage is one scene of a show.
type Stage interface {
	// Name returns the stage name used in logs.
	Name() string

	// Init builds the stage's passes and loads its assets. It runs once, before any other call.
	//
	// Parameters:
	//   - ctx: the context at startup
	Init(ctx *Context)

	// Input reacts to a key, resize or controller event.
	//
	// Parameters:
	//   - ctx: the current context
	//   - in: the event
	Input(ctx *Context, in Input)

	// Update advances the stage's state for the tick: animators, scene transforms and uniforms.
	//
	// Parameters:
	//   - ctx: the current context
	Update(ctx *Context)

	// View records the stage's passes into f, ending in target.
	//
	// Parameters:
	//   - ctx: the current context
	//   - f: the frame being recorded
	//   - target: the surface view for this frame
	View(ctx *Context, f *frame.Frame, target *wgpu.TextureView)
}

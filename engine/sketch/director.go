package sketch

import (
	"log/slog"

	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/cogentcore/webgpu/wgpu"
)

// Director is a Stage that forwards to one of several stages. Number keys 1 to 9 select a stage and digit
// key presses are never forwarded; every other call goes to the selected stage only, except resizes which
// reach every stage.
type Director struct {
	stages   []Stage
	current  int
	selected func(Stage)
}

var _ Stage = &Director{}

// NewDirector creates a director showing the first stage. It panics without stages.
//
// Parameters:
//   - stages: the stages in key order
//
// Returns:
//   - *Director: the director
func NewDirector(stages ...Stage) *Director {
	if len(stages) == 0 {
		panic("sketch: director needs at least one stage")
	}
	return &Director{stages: stages}
}

// OnSelect registers a callback run after the selected stage changes.
func (d *Director) OnSelect(fn func(Stage)) {
	d.selected = fn
}

// Current returns the selected stage.
func (d *Director) Current() Stage {
	return d.stages[d.current]
}

// Index returns the position of the selected stage.
func (d *Director) Index() int {
	return d.current
}

// Len returns the number of stages.
func (d *Director) Len() int {
	return len(d.stages)
}

// Select switches to stage i. It returns false if i is out of range.
func (d *Director) Select(i int) bool {
	if i < 0 || i >= len(d.stages) {
		return false
	}
	if i == d.current {
		return true
	}
	d.current = i
	if d.selected != nil {
		d.selected(d.stages[i])
	}
	return true
}

// Name returns the selected stage's name.
func (d *Director) Name() string {
	return d.Current().Name()
}

func (d *Director) Init(ctx *Context) {
	for _, s := range d.stages {
		s.Init(ctx)
	}
}

func (d *Director) Input(ctx *Context, in Input) {
	switch in.Kind {
	case KeyDown:
		// Digit keys belong to the director. 0 and digits past the last stage select nothing.
		if n, ok := in.Key.Digit(); ok {
			if n > 0 && d.Select(n-1) && ctx.Logger != nil {
				ctx.Logger.Info("stage selected", slog.Int("index", n-1), slog.String("stage", d.Name()))
			}
			return
		}
	case Resize:
		for _, s := range d.stages {
			s.Input(ctx, in)
		}
		return
	}
	d.Current().Input(ctx, in)
}

func (d *Director) Update(ctx *Context) {
	d.Current().Update(ctx)
}

func (d *Director) View(ctx *Context, f *frame.Frame, target *wgpu.TextureView) {
	d.Current().View(ctx, f, target)
}

package animator

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/scene"
)

// SampleRate is the keyframe rate animations are assumed to be sampled at, in keyframes per second.
const SampleRate = 60.0

// State is the playback state of one animation.
type State struct {
	Playing bool
	Looping bool
	// Start is the clock time Play was called at.
	Start float32
}

// Animator plays the animations of a scene description against its graph.
//
// Animations are addressed by name. Each playing animation computes its position from the global clock
// passed to Update, so playback needs no per-frame delta bookkeeping. Animations are applied in the order
// they were given to NewAnimator; when two playing animations drive the same node property the later one
// wins.
type Animator interface {
	// Play starts (or restarts) the named animation at clock time t. Unknown names panic.
	//
	// Parameters:
	//   - t: the current clock time in seconds
	//   - looping: whether playback wraps around at the end instead of stopping
	//   - name: the animation name
	Play(t float32, looping bool, name string)

	// Stop halts the named animation, leaving the nodes at their last applied pose. Unknown names panic.
	//
	// Parameters:
	//   - name: the animation name
	Stop(name string)

	// Update samples every playing animation at clock time t and writes the results into g.
	// A non-looping animation that has reached its end is marked stopped and not applied.
	//
	// Parameters:
	//   - t: the current clock time in seconds
	//   - g: the graph whose nodes are animated
	Update(t float32, g *scene.Graph)

	// State returns the playback state of the named animation. Unknown names panic.
	//
	// Parameters:
	//   - name: the animation name
	//
	// Returns:
	//   - State: the playback state
	State(name string) State

	// Names returns the animation names in application order.
	Names() []string
}

// animator is the implementation of the Animator interface.
type animator struct {
	mu     *sync.Mutex
	logger *slog.Logger
	rate   float32

	animations []scene.Animation
	states     []State
	index      map[string]int
}

var _ Animator = &animator{}

// NewAnimator creates an animator over animations, all initially stopped. Duplicate names resolve to the
// first animation with that name.
//
// Parameters:
//   - animations: the animations, usually scene.Desc.Animations
//   - options: functional options for the sample rate and logging
//
// Returns:
//   - Animator: the animator
func NewAnimator(animations []scene.Animation, options ...AnimatorBuilderOption) Animator {
	a := &animator{
		mu:         &sync.Mutex{},
		logger:     common.NopLogger(),
		rate:       SampleRate,
		animations: animations,
		states:     make([]State, len(animations)),
		index:      make(map[string]int, len(animations)),
	}
	for i, anim := range animations {
		if _, ok := a.index[anim.Name]; !ok {
			a.index[anim.Name] = i
		}
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *animator) lookup(name string) int {
	i, ok := a.index[name]
	if !ok {
		panic(fmt.Sprintf("animator: unknown animation %q", name))
	}
	return i
}

func (a *animator) Play(t float32, looping bool, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.lookup(name)
	a.states[i] = State{Playing: true, Looping: looping, Start: t}
	a.logger.Debug("animation started", slog.String("animation", name), slog.Bool("looping", looping))
}

func (a *animator) Stop(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.states[a.lookup(name)].Playing = false
}

func (a *animator) State(name string) State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.states[a.lookup(name)]
}

func (a *animator) Names() []string {
	names := make([]string, len(a.animations))
	for i, anim := range a.animations {
		names[i] = anim.Name
	}
	return names
}

func (a *animator) Update(t float32, g *scene.Graph) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.animations {
		st := &a.states[i]
		if !st.Playing {
			continue
		}
		anim := &a.animations[i]

		if anim.Len < 2 {
			anim.Apply(0, g)
			if !st.Looping {
				st.Playing = false
			}
			continue
		}

		elapsed := (t - st.Start) * a.rate
		fraction := elapsed / float32(anim.Len-1)
		if fraction >= 1 && !st.Looping {
			st.Playing = false
			a.logger.Debug("animation finished", slog.String("animation", anim.Name))
			continue
		}
		anim.Apply(float32(math.Mod(float64(fraction), 1)), g)
	}
}

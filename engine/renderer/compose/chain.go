// Package compose wires passes into fixed effect chains and provides the built-in effect stages.
//
// A chain is declared once and re-encoded identically every frame. Each stage renders straight into the
// next stage's input slot 0, and the last stage renders into the target handed to Encode. All stages are
// recorded into the frame's single command encoder, so an upstream pass is complete before the
// downstream pass samples its output.
package compose

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/pass"
	"github.com/cogentcore/webgpu/wgpu"
)

// Chain runs a head pass followed by stages, each feeding the next.
type Chain struct {
	head   pass.Pass
	stages []pass.Stage
}

var _ pass.Pass = &Chain{}

// NewChain builds a chain. The head can be any pass; every following element must expose input slots.
//
// Parameters:
//   - head: the first pass, e.g. a Phong or Synth pass
//   - stages: the downstream stages in order
//
// Returns:
//   - *Chain: the chain
func NewChain(head pass.Pass, stages ...pass.Stage) *Chain {
	if head == nil {
		panic("compose: chain needs a head pass")
	}
	for i, s := range stages {
		if s == nil {
			panic(fmt.Sprintf("compose: chain stage %d is nil", i+1))
		}
		if s.Inputs() < 1 {
			panic(fmt.Sprintf("compose: chain stage %d (%s) has no input slot", i+1, s.Label()))
		}
	}
	return &Chain{head: head, stages: stages}
}

func (c *Chain) Label() string {
	labels := make([]string, 0, len(c.stages)+1)
	for _, p := range c.Passes() {
		labels = append(labels, p.Label())
	}
	return strings.Join(labels, " > ")
}

// Passes returns the chain's passes in encode order.
func (c *Chain) Passes() []pass.Pass {
	out := make([]pass.Pass, 0, len(c.stages)+1)
	out = append(out, c.head)
	for _, s := range c.stages {
		out = append(out, s)
	}
	return out
}

// Encode records every pass. All intermediate passes clear their slot; the last clears target.
func (c *Chain) Encode(f *frame.Frame, target *wgpu.TextureView) {
	c.encode(f, target, false)
}

// EncodeLoad records every pass. The last one preserves target's content, so a chain can be layered.
func (c *Chain) EncodeLoad(f *frame.Frame, target *wgpu.TextureView) {
	c.encode(f, target, true)
}

func (c *Chain) encode(f *frame.Frame, target *wgpu.TextureView, load bool) {
	passes := c.Passes()
	for k, p := range passes {
		dst := target
		if k < len(c.stages) {
			dst = c.stages[k].View(0)
		}
		if load && k == len(passes)-1 {
			p.EncodeLoad(f, dst)
			continue
		}
		p.Encode(f, dst)
	}
}

// View forwards to the head when it is a stage, so a chain can itself sit downstream of another pass.
func (c *Chain) View(i int) *wgpu.TextureView {
	s, ok := c.head.(pass.Stage)
	if !ok {
		panic(fmt.Sprintf("compose: chain head %s has no input slots", c.head.Label()))
	}
	return s.View(i)
}

// Inputs returns the head's input count, or 0 when the head takes no inputs.
func (c *Chain) Inputs() int {
	if s, ok := c.head.(pass.Stage); ok {
		return s.Inputs()
	}
	return 0
}

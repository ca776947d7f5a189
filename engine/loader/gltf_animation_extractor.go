package loader

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/phantoma/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// SampleRate is the keyframe rate animations are resampled to. The animator steps one keyframe per frame at
// this rate.
const SampleRate = 60

// gltfAnimationExtractorImpl is the implementation of gltfAnimationExtractor.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
	pool   worker.DynamicWorkerPool
}

// gltfAnimationExtractor resamples glTF animations onto evenly spaced keyframes at SampleRate.
type gltfAnimationExtractor interface {
	// Extract converts one animation. Channels are resampled in parallel over the animation's full
	// duration, so every track has the same keyframe count.
	//
	// Parameters:
	//   - index: the glTF animation index
	//   - node: maps a glTF node index to its scene node
	//
	// Returns:
	//   - scene.Animation: the resampled animation
	//   - error: error if a sampler cannot be decoded
	Extract(index int, node func(int) scene.NodeIndex) (scene.Animation, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

func newGLTFAnimationExtractor(parser gltfParser, pool worker.DynamicWorkerPool) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser, pool: pool}
}

// gltfKeys is one decoded sampler: ascending times and comps values per key.
type gltfKeys struct {
	times  []float32
	values []float32
	comps  int
	step   bool
}

func (e *gltfAnimationExtractorImpl) Extract(index int, node func(int) scene.NodeIndex) (scene.Animation, error) {
	doc := e.parser.Document()
	if index < 0 || index >= len(doc.Animations) {
		return scene.Animation{}, fmt.Errorf("animation %d: %w", index, errIndexOutOfRange)
	}
	anim := doc.Animations[index]
	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", index)
	}

	type pending struct {
		path string
		node scene.NodeIndex
		keys gltfKeys
	}
	var channels []pending
	var duration float32
	for i, ch := range anim.Channels {
		comps := 0
		switch ch.Target.Path {
		case "translation", "scale":
			comps = 3
		case "rotation":
			comps = 4
		}
		if ch.Target.Node == nil || comps == 0 {
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return scene.Animation{}, fmt.Errorf("animation %q channel %d sampler %d: %w", name, i, ch.Sampler, errIndexOutOfRange)
		}
		keys, err := e.keys(anim.Samplers[ch.Sampler], comps)
		if err != nil {
			return scene.Animation{}, fmt.Errorf("animation %q channel %d: %w", name, i, err)
		}
		if len(keys.times) == 0 {
			continue
		}
		duration = max(duration, keys.times[len(keys.times)-1])
		channels = append(channels, pending{path: ch.Target.Path, node: node(*ch.Target.Node), keys: keys})
	}

	frames := Frames(duration)
	tracks := make([]scene.Track, len(channels))
	var wg sync.WaitGroup
	for k, ch := range channels {
		wg.Add(1)
		e.pool.SubmitTask(worker.Task{
			ID: k,
			Do: func() (any, error) {
				defer wg.Done()
				tracks[k] = scene.Track{Channel: resample(ch.path, ch.keys, frames), Node: ch.node}
				return nil, nil
			},
		})
	}
	wg.Wait()

	return scene.NewAnimation(name, tracks...), nil
}

// keys decodes a sampler. CUBICSPLINE outputs hold in-tangent, value, out-tangent per key; only the value
// is kept.
func (e *gltfAnimationExtractorImpl) keys(s gltfAnimSampler, comps int) (gltfKeys, error) {
	times, err := e.parser.ReadFloats(s.Input, 1)
	if err != nil {
		return gltfKeys{}, fmt.Errorf("input: %w", err)
	}
	values, err := e.parser.ReadFloats(s.Output, comps)
	if err != nil {
		return gltfKeys{}, fmt.Errorf("output: %w", err)
	}

	switch s.Interpolation {
	case "CUBICSPLINE":
		kept := make([]float32, 0, len(values)/3)
		for k := 0; (k*3+2)*comps <= len(values); k++ {
			kept = append(kept, values[(k*3+1)*comps:(k*3+2)*comps]...)
		}
		values = kept
	case "", "LINEAR", "STEP":
	default:
		return gltfKeys{}, fmt.Errorf("unknown interpolation %q", s.Interpolation)
	}

	n := min(len(times), len(values)/comps)
	return gltfKeys{times: times[:n], values: values[:n*comps], comps: comps, step: s.Interpolation == "STEP"}, nil
}

// Frames returns the keyframe count covering duration seconds at SampleRate, including both ends.
func Frames(duration float32) int {
	if duration <= 0 {
		return 1
	}
	return int(math.Round(float64(duration)*SampleRate)) + 1
}

// locate finds the keys around t: the value is keys[i] mixed towards keys[j] by frac.
func (k gltfKeys) locate(t float32) (i, j int, frac float32) {
	n := len(k.times)
	j = sort.Search(n, func(x int) bool { return k.times[x] > t })
	switch {
	case j == 0:
		return 0, 0, 0
	case j == n:
		return n - 1, n - 1, 0
	}
	i = j - 1
	if k.step {
		return i, i, 0
	}
	span := k.times[j] - k.times[i]
	if span <= 0 {
		return j, j, 0
	}
	return i, j, (t - k.times[i]) / span
}

func (k gltfKeys) vec3(i int) mgl32.Vec3 {
	v := k.values[i*3:]
	return mgl32.Vec3{v[0], v[1], v[2]}
}

// quat reads an (x, y, z, w) rotation.
func (k gltfKeys) quat(i int) mgl32.Quat {
	v := k.values[i*4:]
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

func resample(path string, keys gltfKeys, frames int) scene.Channel {
	at := func(f int) float32 { return float32(f) / SampleRate }
	switch path {
	case "rotation":
		out := make(scene.RotateChannel, frames)
		for f := range out {
			i, j, t := keys.locate(at(f))
			out[f] = scene.Slerp(keys.quat(i), keys.quat(j), t)
		}
		return out
	case "scale":
		out := make(scene.ScaleChannel, frames)
		for f := range out {
			i, j, t := keys.locate(at(f))
			a, b := keys.vec3(i), keys.vec3(j)
			out[f] = a.Add(b.Sub(a).Mul(t))
		}
		return out
	default:
		out := make(scene.TranslateChannel, frames)
		for f := range out {
			i, j, t := keys.locate(at(f))
			a, b := keys.vec3(i), keys.vec3(j)
			out[f] = a.Add(b.Sub(a).Mul(t))
		}
		return out
	}
}

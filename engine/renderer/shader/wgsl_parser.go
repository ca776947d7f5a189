package shader

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// sampledTextureDims maps WGSL sampled texture base names to their view dimension.
var sampledTextureDims = map[string]wgpu.TextureViewDimension{
	"texture_1d":         wgpu.TextureViewDimension1D,
	"texture_2d":         wgpu.TextureViewDimension2D,
	"texture_2d_array":   wgpu.TextureViewDimension2DArray,
	"texture_3d":         wgpu.TextureViewDimension3D,
	"texture_cube":       wgpu.TextureViewDimensionCube,
	"texture_cube_array": wgpu.TextureViewDimensionCubeArray,
	"texture_depth_2d":   wgpu.TextureViewDimension2D,
}

var sampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var (
	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name and type from
	// declarations such as `@group(0) @binding(1) var<uniform> params: Params;` or
	// `@group(0) @binding(0) var input: texture_2d<f32>;`.
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoint returns the name of the first function carrying the given stage attribute.
func parseEntryPoint(source string, re *regexp.Regexp) string {
	if m := re.FindStringSubmatch(stripComments(source)); m != nil {
		return m[1]
	}
	return ""
}

// parseBindGroupLayouts derives bind group layout descriptors from the @group/@binding declarations in
// source. Every entry is visible to both the vertex and fragment stages. Buffer entries leave
// MinBindingSize at zero, deferring the size check to draw time.
//
// Parameters:
//   - source: pre-processed WGSL source
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index, entries sorted by binding
//   - map[int]map[int]string: variable names keyed by group and binding
func parseBindGroupLayouts(source string) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, m := range bindGroupDeclRegex.FindAllStringSubmatch(stripComments(source), -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		entry := classifyResource(uint32(binding), strings.TrimSpace(m[3]), strings.TrimSpace(m[5]))
		groups[group] = append(groups[group], entry)

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = m[4]
	}

	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		slices.SortFunc(entries, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
		out[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return out, names
}

func classifyResource(binding uint32, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}

	switch {
	case addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_"):
		base, param, _ := strings.Cut(typeName, "<")
		entry.Texture.ViewDimension = sampledTextureDims[base]
		entry.Texture.SampleType = sampleTypes[strings.TrimSuffix(strings.TrimSpace(param), ">")]
		if strings.HasPrefix(base, "texture_depth_") {
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		}
	}
	return entry
}

// stripComments removes line comments and (nestable) block comments.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			case source[i] == '/' && source[i+1] == '/' && depth == 0:
				for i < len(source) && source[i] != '\n' {
					i++
				}
				if i < len(source) {
					sb.WriteByte('\n')
				}
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

package shader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// shader is the implementation of the Shader interface.
type shader struct {
	key           string
	source        string
	vertexEntry   string
	fragmentEntry string
	layouts       map[int]wgpu.BindGroupLayoutDescriptor
	varNames      map[int]map[int]string
	includes      []string
	module        *wgpu.ShaderModuleDescriptor

	pp PreProcessor
}

// Shader is a pre-processed WGSL render shader together with the metadata a pass needs to build a
// pipeline for it: entry points and the bind group layouts its declarations imply.
type Shader interface {
	// Key returns the shader's identifier, used as the module label.
	//
	// Returns:
	//   - string: the shader key
	Key() string

	// Source returns the pre-processed WGSL source.
	//
	// Returns:
	//   - string: the expanded WGSL source
	Source() string

	// VertexEntry returns the name of the first @vertex function, or "" if there is none.
	VertexEntry() string

	// FragmentEntry returns the name of the first @fragment function, or "" if there is none.
	FragmentEntry() string

	// BindGroupLayoutDescriptors returns the layouts derived from the shader's @group/@binding
	// declarations, keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the variable declared at group and binding, or "".
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the WGSL variable name
	BindGroupVarName(group, binding int) string

	// Includes returns the snippets spliced into the source, in expansion order.
	Includes() []string

	// Module returns the shader module descriptor for the expanded source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the module descriptor
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader pre-processes source and extracts its entry points and bind group layouts.
//
// Parameters:
//   - key: the shader identifier
//   - source: the raw WGSL source, possibly containing include directives
//   - options: functional options for registering extra snippets
//
// Returns:
//   - Shader: the parsed shader
//   - error: error if pre-processing fails or the source has no fragment entry point
func NewShader(key, source string, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key: key,
		pp:  NewPreProcessor(),
	}
	for _, opt := range options {
		opt(s)
	}

	expanded, err := s.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	s.source = expanded
	s.includes = append([]string(nil), s.pp.Includes()...)
	s.vertexEntry = parseEntryPoint(expanded, vertexEntryRegex)
	s.fragmentEntry = parseEntryPoint(expanded, fragmentEntryRegex)
	if s.fragmentEntry == "" {
		return nil, fmt.Errorf("shader %s: no @fragment entry point", key)
	}
	s.layouts, s.varNames = parseBindGroupLayouts(expanded)
	s.module = &wgpu.ShaderModuleDescriptor{
		Label:          key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: expanded},
	}
	return s, nil
}

// Load reads, pre-processes and parses the WGSL file at path. The file name without extension becomes
// the key. A missing or malformed file panics.
//
// Parameters:
//   - path: the WGSL file path
//   - options: functional options passed to NewShader
//
// Returns:
//   - Shader: the parsed shader
func Load(path string, options ...ShaderBuilderOption) Shader {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("shader: failed to read source file %q: %v", path, err))
	}
	key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := NewShader(key, string(data), options...)
	if err != nil {
		panic(fmt.Sprintf("shader: failed to load %q: %v", path, err))
	}
	return s
}

// Must is NewShader for sources known at build time. Errors panic.
func Must(key, source string, options ...ShaderBuilderOption) Shader {
	s, err := NewShader(key, source, options...)
	if err != nil {
		panic(fmt.Sprintf("shader: %v", err))
	}
	return s
}

// Compile creates the GPU shader module for s. Compilation failure panics.
//
// Parameters:
//   - device: the wgpu device
//   - s: the shader
//
// Returns:
//   - *wgpu.ShaderModule: the compiled module
func Compile(device *wgpu.Device, s Shader) *wgpu.ShaderModule {
	module, err := device.CreateShaderModule(s.Module())
	if err != nil {
		panic(fmt.Sprintf("shader: failed to compile %s: %v", s.Key(), err))
	}
	return module
}

func (s *shader) Key() string           { return s.key }
func (s *shader) Source() string        { return s.source }
func (s *shader) VertexEntry() string   { return s.vertexEntry }
func (s *shader) FragmentEntry() string { return s.fragmentEntry }
func (s *shader) Includes() []string    { return s.includes }

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.layouts
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.varNames[group] == nil {
		return ""
	}
	return s.varNames[group][binding]
}

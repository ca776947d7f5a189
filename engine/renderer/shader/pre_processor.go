// pre_processor.go implements the PHANTOMa WGSL pre-processor. It scans shader source for
// //@phantoma:include directives and splices in the named snippet, expanding nested includes
// depth-first. Each snippet is emitted at most once per shader, so two snippets can both include a
// shared one without producing duplicate declarations.
package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/phantoma/engine/scene"
)

// directivePrefix marks a pre-processor directive inside a WGSL line comment.
const directivePrefix = "@phantoma:"

var (
	ErrUnknownInclude   = errors.New("unknown include")
	ErrIncludeCycle     = errors.New("include cycle")
	ErrUnknownDirective = errors.New("unknown directive")
	ErrMalformed        = errors.New("malformed directive")
)

//go:embed assets/fullscreen.wgsl
var fullscreenSource string

//go:embed assets/params.wgsl
var paramsSource string

//go:embed assets/noise.wgsl
var noiseSource string

// builtinSnippets returns the snippets every pre-processor starts with.
func builtinSnippets() map[string]string {
	return map[string]string{
		"fullscreen": fullscreenSource,
		"params":     paramsSource,
		"noise":      noiseSource,
		"camera":     scene.CameraSource,
		"lights":     scene.LightsSource,
		"material":   scene.MaterialSource,
		"mesh":       scene.MeshSource,
	}
}

// PreProcessor expands //@phantoma:include directives in WGSL source.
type PreProcessor interface {
	// Process returns source with every include directive replaced by its snippet. The include list
	// is reset at the start of each call.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded source
	//   - error: ErrUnknownInclude, ErrIncludeCycle, ErrUnknownDirective or ErrMalformed, wrapped with the line number
	Process(source string) (string, error)

	// Includes returns the snippet names spliced in by the last Process call, in expansion order.
	Includes() []string

	// Register adds or replaces a snippet. Snippets may include other snippets.
	//
	// Parameters:
	//   - name: the include name
	//   - source: the snippet's WGSL source
	Register(name, source string)
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	snippets map[string]string
	included []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a pre-processor preloaded with the built-in snippets: fullscreen, params,
// noise, camera, lights, material and mesh.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{snippets: builtinSnippets()}
}

// Preprocess expands source with the built-in snippets.
func Preprocess(source string) (string, error) {
	return NewPreProcessor().Process(source)
}

func (p *preProcessor) Register(name, source string) {
	p.snippets[name] = source
}

func (p *preProcessor) Includes() []string {
	return p.included
}

func (p *preProcessor) Process(source string) (string, error) {
	p.included = p.included[:0]
	var sb strings.Builder
	if err := p.expand(&sb, "", source, nil, map[string]bool{}); err != nil {
		return "", err
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

// expand writes source into sb, recursing into includes. stack holds the snippets currently being
// expanded; done holds every snippet already emitted.
func (p *preProcessor) expand(sb *strings.Builder, from, source string, stack []string, done map[string]bool) error {
	for i, line := range strings.Split(source, "\n") {
		name, ok, err := parseDirective(line)
		if err != nil {
			return fmt.Errorf("%sline %d: %w", where(from), i+1, err)
		}
		if !ok {
			sb.WriteString(line)
			sb.WriteByte('\n')
			continue
		}

		for _, s := range stack {
			if s == name {
				return fmt.Errorf("%sline %d: %s -> %s: %w", where(from), i+1, strings.Join(stack, " -> "), name, ErrIncludeCycle)
			}
		}
		if done[name] {
			continue
		}
		snippet, known := p.snippets[name]
		if !known {
			return fmt.Errorf("%sline %d: %q: %w", where(from), i+1, name, ErrUnknownInclude)
		}

		if err := p.expand(sb, name, snippet, append(stack, name), done); err != nil {
			return err
		}
		done[name] = true
		p.included = append(p.included, name)
	}
	return nil
}

func where(snippet string) string {
	if snippet == "" {
		return ""
	}
	return snippet + ": "
}

// parseDirective reports whether line is a directive and returns the include name.
func parseDirective(line string) (string, bool, error) {
	trimmed := strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return "", false, nil
	}
	rest, ok = strings.CutPrefix(strings.TrimSpace(rest), directivePrefix)
	if !ok {
		return "", false, nil
	}

	args := strings.Fields(rest)
	if len(args) == 0 {
		return "", false, fmt.Errorf("empty directive: %w", ErrMalformed)
	}
	if args[0] != "include" {
		return "", false, fmt.Errorf("%q: %w", args[0], ErrUnknownDirective)
	}
	if len(args) != 2 {
		return "", false, fmt.Errorf("include takes exactly one name: %w", ErrMalformed)
	}
	return args[1], true, nil
}

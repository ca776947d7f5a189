package loader

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	errGLTFVersion     = errors.New("unsupported glTF version: must be 2.x")
	errGLBHeader       = errors.New("invalid GLB header")
	errGLBNoJSON       = errors.New("GLB has no JSON chunk")
	errDataURI         = errors.New("malformed data URI")
	errBufferShort     = errors.New("buffer shorter than its byteLength")
	errAccessorRange   = errors.New("accessor reads past its buffer")
	errAccessorSparse  = errors.New("sparse accessors are not supported")
	errAccessorFormat  = errors.New("unexpected accessor format")
	errIndexOutOfRange = errors.New("index out of range")
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir  string
	document *gltfDocument
	bin      []byte
}

// gltfParser loads a glTF or GLB document, resolves its buffers and decodes accessors into float and
// index slices.
type gltfParser interface {
	// Parse reads the file at path. Files ending in .glb are read as binary containers.
	//
	// Parameters:
	//   - path: path to a .gltf or .glb file
	//
	// Returns:
	//   - error: error if the file cannot be read or is not valid glTF 2.x
	Parse(path string) error

	// ParseReader reads a document from r. Relative buffer and image URIs resolve against BaseDir, which is
	// empty unless set by Parse.
	//
	// Parameters:
	//   - r: the glTF JSON or GLB stream
	//   - isGLB: true for a binary container
	//
	// Returns:
	//   - error: error if the stream is not valid glTF 2.x
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the parsed document, or nil before a successful parse.
	Document() *gltfDocument

	// BaseDir returns the directory relative URIs resolve against.
	BaseDir() string

	// ReadFloats decodes an accessor into a flat slice with comps values per element. Normalized integer
	// components are mapped to [0, 1] or [-1, 1].
	//
	// Parameters:
	//   - accessor: the accessor index
	//   - comps: the expected component count (1 for SCALAR, 3 for VEC3, ...)
	//
	// Returns:
	//   - []float32: count*comps values
	//   - error: error if the accessor is missing, of another type, or out of bounds
	ReadFloats(accessor, comps int) ([]float32, error)

	// ReadVec2 decodes a VEC2 accessor.
	ReadVec2(accessor int) ([]mgl32.Vec2, error)

	// ReadVec3 decodes a VEC3 accessor.
	ReadVec3(accessor int) ([]mgl32.Vec3, error)

	// ReadVec4 decodes a VEC4 accessor.
	ReadVec4(accessor int) ([]mgl32.Vec4, error)

	// ReadIndices decodes an unsigned SCALAR accessor into uint32 indices.
	//
	// Parameters:
	//   - accessor: the accessor index
	//
	// Returns:
	//   - []uint32: the indices
	//   - error: error if the component type is not unsigned or the read is out of bounds
	ReadIndices(accessor int) ([]uint32, error)

	// ReadImage returns the encoded bytes of an image, from its buffer view, data URI or external file.
	//
	// Parameters:
	//   - image: the image index
	//
	// Returns:
	//   - []byte: the encoded image
	//   - error: error if the source cannot be resolved
	ReadImage(image int) ([]byte, error)
}

var _ gltfParser = &gltfParserImpl{}

func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument { return p.document }
func (p *gltfParserImpl) BaseDir() string         { return p.baseDir }

func (p *gltfParserImpl) Parse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	p.baseDir = filepath.Dir(path)
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		return p.parseGLB(data)
	}
	return p.parseJSON(data)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read glTF stream: %w", err)
	}
	if isGLB {
		return p.parseGLB(data)
	}
	return p.parseJSON(data)
}

func (p *gltfParserImpl) parseJSON(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("version %q: %w", doc.Asset.Version, errGLTFVersion)
	}
	if err := p.resolveBuffers(&doc); err != nil {
		return err
	}
	p.document = &doc
	return nil
}

// parseGLB splits the container into its JSON and BIN chunks. Chunks of unknown type are skipped.
func (p *gltfParserImpl) parseGLB(data []byte) error {
	if len(data) < glbHeaderLen {
		return errGLBHeader
	}
	le := binary.LittleEndian
	if le.Uint32(data[0:]) != glbMagic || le.Uint32(data[4:]) != glbVersion {
		return errGLBHeader
	}
	total := min(int(le.Uint32(data[8:])), len(data))

	var jsonChunk []byte
	for off := glbHeaderLen; off+8 <= total; {
		length := int(le.Uint32(data[off:]))
		kind := le.Uint32(data[off+4:])
		off += 8
		if off+length > total {
			return fmt.Errorf("GLB chunk of %d bytes at %d: %w", length, off, errGLBHeader)
		}
		switch kind {
		case glbChunkJSON:
			jsonChunk = data[off : off+length]
		case glbChunkBIN:
			p.bin = data[off : off+length]
		}
		off += length
	}
	if jsonChunk == nil {
		return errGLBNoJSON
	}
	return p.parseJSON(jsonChunk)
}

func (p *gltfParserImpl) resolveBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]
		switch {
		case buf.URI == "" && i == 0 && p.bin != nil:
			buf.data = p.bin
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no uri and there is no GLB BIN chunk", i)
		default:
			data, err := p.readURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.data = data
		}
		if len(buf.data) < buf.ByteLength {
			return fmt.Errorf("buffer %d has %d of %d bytes: %w", i, len(buf.data), buf.ByteLength, errBufferShort)
		}
	}
	return nil
}

// readURI resolves a data URI or a file path relative to the document.
func (p *gltfParserImpl) readURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}
	data, err := os.ReadFile(filepath.Join(p.baseDir, filepath.FromSlash(uri)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", uri, err)
	}
	return data, nil
}

// decodeDataURI decodes data:[<mediatype>];base64,<payload>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, errDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDataURI, err)
	}
	return data, nil
}

// view returns the bytes of a buffer view together with its stride (0 when tightly packed).
func (p *gltfParserImpl) view(index int) ([]byte, int, error) {
	doc := p.document
	if index < 0 || index >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("buffer view %d: %w", index, errIndexOutOfRange)
	}
	bv := doc.BufferViews[index]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, 0, fmt.Errorf("buffer %d: %w", bv.Buffer, errIndexOutOfRange)
	}
	data := doc.Buffers[bv.Buffer].data
	if bv.ByteOffset+bv.ByteLength > len(data) {
		return nil, 0, fmt.Errorf("buffer view %d: %w", index, errAccessorRange)
	}
	return data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], bv.ByteStride, nil
}

// elements returns one byte slice per accessor element, honouring the view's stride.
func (p *gltfParserImpl) elements(index int) (*gltfAccessor, [][]byte, error) {
	if p.document == nil {
		return nil, nil, errors.New("no document loaded")
	}
	if index < 0 || index >= len(p.document.Accessors) {
		return nil, nil, fmt.Errorf("accessor %d: %w", index, errIndexOutOfRange)
	}
	acc := &p.document.Accessors[index]
	if len(acc.Sparse) > 0 {
		return nil, nil, fmt.Errorf("accessor %d: %w", index, errAccessorSparse)
	}
	size := componentSize(acc.ComponentType) * typeComponents(acc.Type)
	if size == 0 {
		return nil, nil, fmt.Errorf("accessor %d is %s/%d: %w", index, acc.Type, acc.ComponentType, errAccessorFormat)
	}

	out := make([][]byte, acc.Count)
	if acc.BufferView == nil {
		// No view means all zeros.
		zero := make([]byte, size)
		for i := range out {
			out[i] = zero
		}
		return acc, out, nil
	}

	data, stride, err := p.view(*acc.BufferView)
	if err != nil {
		return nil, nil, err
	}
	if stride == 0 {
		stride = size
	}
	for i := range out {
		start := acc.ByteOffset + i*stride
		if start+size > len(data) {
			return nil, nil, fmt.Errorf("accessor %d element %d: %w", index, i, errAccessorRange)
		}
		out[i] = data[start : start+size]
	}
	return acc, out, nil
}

func (p *gltfParserImpl) ReadFloats(accessor, comps int) ([]float32, error) {
	acc, elems, err := p.elements(accessor)
	if err != nil {
		return nil, err
	}
	if typeComponents(acc.Type) != comps {
		return nil, fmt.Errorf("accessor %d is %s, want %d components: %w", accessor, acc.Type, comps, errAccessorFormat)
	}
	if acc.ComponentType != gltfFloat && !acc.Normalized {
		return nil, fmt.Errorf("accessor %d has integer components without normalized: %w", accessor, errAccessorFormat)
	}

	step := componentSize(acc.ComponentType)
	out := make([]float32, 0, len(elems)*comps)
	for _, e := range elems {
		for c := range comps {
			out = append(out, decodeComponent(e[c*step:], acc.ComponentType))
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadVec2(accessor int) ([]mgl32.Vec2, error) {
	flat, err := p.ReadFloats(accessor, 2)
	if err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec2, len(flat)/2)
	for i := range out {
		out[i] = mgl32.Vec2{flat[i*2], flat[i*2+1]}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadVec3(accessor int) ([]mgl32.Vec3, error) {
	flat, err := p.ReadFloats(accessor, 3)
	if err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec3, len(flat)/3)
	for i := range out {
		out[i] = mgl32.Vec3{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadVec4(accessor int) ([]mgl32.Vec4, error) {
	flat, err := p.ReadFloats(accessor, 4)
	if err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec4, len(flat)/4)
	for i := range out {
		out[i] = mgl32.Vec4{flat[i*4], flat[i*4+1], flat[i*4+2], flat[i*4+3]}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadIndices(accessor int) ([]uint32, error) {
	acc, elems, err := p.elements(accessor)
	if err != nil {
		return nil, err
	}
	if acc.Type != "SCALAR" {
		return nil, fmt.Errorf("index accessor %d is %s: %w", accessor, acc.Type, errAccessorFormat)
	}

	out := make([]uint32, len(elems))
	le := binary.LittleEndian
	for i, e := range elems {
		switch acc.ComponentType {
		case gltfUnsignedByte:
			out[i] = uint32(e[0])
		case gltfUnsignedShort:
			out[i] = uint32(le.Uint16(e))
		case gltfUnsignedInt:
			out[i] = le.Uint32(e)
		default:
			return nil, fmt.Errorf("index accessor %d has component type %d: %w", accessor, acc.ComponentType, errAccessorFormat)
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadImage(image int) ([]byte, error) {
	if p.document == nil || image < 0 || image >= len(p.document.Images) {
		return nil, fmt.Errorf("image %d: %w", image, errIndexOutOfRange)
	}
	img := p.document.Images[image]
	if img.BufferView != nil {
		data, _, err := p.view(*img.BufferView)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", image, err)
		}
		return data, nil
	}
	if img.URI == "" {
		return nil, fmt.Errorf("image %d has neither uri nor bufferView", image)
	}
	return p.readURI(img.URI)
}

func decodeComponent(b []byte, componentType int) float32 {
	le := binary.LittleEndian
	switch componentType {
	case gltfFloat:
		return math.Float32frombits(le.Uint32(b))
	case gltfUnsignedByte:
		return float32(b[0]) / 255
	case gltfByte:
		return max(float32(int8(b[0]))/127, -1)
	case gltfUnsignedShort:
		return float32(le.Uint16(b)) / 65535
	case gltfShort:
		return max(float32(int16(le.Uint16(b)))/32767, -1)
	case gltfUnsignedInt:
		return float32(le.Uint32(b)) / math.MaxUint32
	}
	return 0
}

func componentSize(componentType int) int {
	switch componentType {
	case gltfByte, gltfUnsignedByte:
		return 1
	case gltfShort, gltfUnsignedShort:
		return 2
	case gltfUnsignedInt, gltfFloat:
		return 4
	}
	return 0
}

func typeComponents(accessorType string) int {
	switch accessorType {
	case "SCALAR":
		return 1
	case "VEC2":
		return 2
	case "VEC3":
		return 3
	case "VEC4", "MAT2":
		return 4
	case "MAT3":
		return 9
	case "MAT4":
		return 16
	}
	return 0
}

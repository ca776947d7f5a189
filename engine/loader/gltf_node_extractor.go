package loader

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// nodeIndex maps glTF node i to scene node i+1. Scene node 0 is the synthetic root.
func nodeIndex(i int) scene.NodeIndex { return scene.NodeIndex(i + 1) }

// extractNodes copies the glTF node hierarchy into d. Nodes without a parent are attached to the root.
//
// Parameters:
//   - doc: the parsed document
//   - d: a fresh description holding only its root
//
// Returns:
//   - error: error if the hierarchy is not a forest
func extractNodes(doc *gltfDocument, d *scene.Desc) error {
	for i, n := range doc.Nodes {
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		idx := d.Graph.Add(scene.Node{Name: name, Transform: nodeTransform(n)})
		if _, taken := d.Names[name]; !taken {
			d.Names[name] = idx
		}
	}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(doc.Nodes) {
				return fmt.Errorf("node %d child %d: %w", i, c, scene.ErrNodeRange)
			}
			if err := d.Graph.Connect(nodeIndex(i), nodeIndex(c)); err != nil {
				return fmt.Errorf("node %d child %d: %w", i, c, err)
			}
		}
	}
	root := d.Graph.Root()
	for i := range doc.Nodes {
		if d.Graph.Parent(nodeIndex(i)) != scene.NoNode {
			continue
		}
		if err := d.Graph.Connect(root, nodeIndex(i)); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
	}
	return nil
}

// nodeTransform reads a node's matrix, or its TRS properties with identity defaults.
func nodeTransform(n gltfNode) scene.Transform {
	if len(n.Matrix) == 16 {
		var m mgl32.Mat4
		copy(m[:], n.Matrix)
		return scene.Decompose(m)
	}
	t := scene.Identity()
	if len(n.Translation) == 3 {
		t.Translate = mgl32.Vec3{n.Translation[0], n.Translation[1], n.Translation[2]}
	}
	if len(n.Rotation) == 4 {
		t.Rotate = mgl32.Quat{W: n.Rotation[3], V: mgl32.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}.Normalize()
	}
	if len(n.Scale) == 3 {
		t.Scale = mgl32.Vec3{n.Scale[0], n.Scale[1], n.Scale[2]}
	}
	return t
}

// extractLight converts a KHR_lights_punctual light attached to node.
func extractLight(l gltfLight, node scene.NodeIndex) (scene.LightDesc, error) {
	out := scene.LightDesc{
		Name:      l.Name,
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 1,
		Range:     l.Range,
		Node:      node,
	}
	if len(l.Color) == 3 {
		out.Color = mgl32.Vec3{l.Color[0], l.Color[1], l.Color[2]}
	}
	if l.Intensity != nil {
		out.Intensity = *l.Intensity
	}
	switch l.Type {
	case "directional":
		out.Kind = scene.LightDirectional
	case "point":
		out.Kind = scene.LightPoint
	case "spot":
		out.Kind = scene.LightSpot
		out.OuterCone = math.Pi / 4
		if l.Spot != nil {
			out.InnerCone = l.Spot.InnerConeAngle
			if l.Spot.OuterConeAngle != nil {
				out.OuterCone = *l.Spot.OuterConeAngle
			}
		}
	default:
		return scene.LightDesc{}, fmt.Errorf("light %q has unknown type %q", l.Name, l.Type)
	}
	return out, nil
}

// extractCamera converts a perspective camera. Orthographic cameras are not supported and return false.
func extractCamera(c gltfCamera, node scene.NodeIndex) (*scene.CameraDesc, bool) {
	if c.Type != "perspective" || c.Perspective == nil {
		return nil, false
	}
	p := c.Perspective
	aspect := p.AspectRatio
	if aspect <= 0 {
		aspect = scene.DefaultAspect
	}
	far := p.Zfar
	if far <= p.Znear {
		far = scene.DefaultFar
	}
	return &scene.CameraDesc{
		Projection: common.Perspective(p.Yfov, aspect, p.Znear, far),
		Node:       node,
	}, true
}

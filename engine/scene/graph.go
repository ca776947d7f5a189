package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeIndex identifies a node within a Graph.
type NodeIndex int

// NoNode is the parent of the root and of nodes that are not connected yet.
const NoNode NodeIndex = -1

// Node is a named transform in the scene graph.
type Node struct {
	Name      string
	Transform Transform
}

var (
	ErrNodeRange    = errors.New("node index out of range")
	ErrSelfEdge     = errors.New("node cannot be its own child")
	ErrSecondParent = errors.New("node already has a parent")
	ErrRootChild    = errors.New("root cannot be a child")
	ErrCycle        = errors.New("edge would create a cycle")
	ErrUnreachable  = errors.New("node is not reachable from the root")
	ErrEmptyGraph   = errors.New("graph has no nodes")
)

// Graph is a tree of nodes rooted at a designated root. Edges point parent -> child; every node has at
// most one parent and the root has none.
type Graph struct {
	nodes    []Node
	parent   []NodeIndex
	children [][]NodeIndex
	root     NodeIndex
}

// NewGraph creates an empty graph. The first node added becomes the root.
func NewGraph() *Graph {
	return &Graph{root: NoNode}
}

// Add appends a node without a parent and returns its index.
//
// Parameters:
//   - node: the node to add
//
// Returns:
//   - NodeIndex: the new node's index
func (g *Graph) Add(node Node) NodeIndex {
	idx := NodeIndex(len(g.nodes))
	g.nodes = append(g.nodes, node)
	g.parent = append(g.parent, NoNode)
	g.children = append(g.children, nil)
	if g.root == NoNode {
		g.root = idx
	}
	return idx
}

// Connect adds the edge parent -> child.
//
// Parameters:
//   - parent: the parent node
//   - child: the child node
//
// Returns:
//   - error: ErrNodeRange, ErrSelfEdge, ErrRootChild, ErrSecondParent or ErrCycle when the edge would break the tree
func (g *Graph) Connect(parent, child NodeIndex) error {
	if !g.valid(parent) || !g.valid(child) {
		return fmt.Errorf("connect %d -> %d: %w", parent, child, ErrNodeRange)
	}
	if parent == child {
		return fmt.Errorf("connect %d -> %d: %w", parent, child, ErrSelfEdge)
	}
	if child == g.root {
		return fmt.Errorf("connect %d -> %d: %w", parent, child, ErrRootChild)
	}
	if g.parent[child] != NoNode {
		return fmt.Errorf("connect %d -> %d: %w", parent, child, ErrSecondParent)
	}
	for n := parent; n != NoNode; n = g.parent[n] {
		if n == child {
			return fmt.Errorf("connect %d -> %d: %w", parent, child, ErrCycle)
		}
	}

	g.parent[child] = parent
	g.children[parent] = append(g.children[parent], child)
	return nil
}

// SetRoot designates a parentless node as the root.
func (g *Graph) SetRoot(root NodeIndex) error {
	if !g.valid(root) {
		return fmt.Errorf("set root %d: %w", root, ErrNodeRange)
	}
	if g.parent[root] != NoNode {
		return fmt.Errorf("set root %d: %w", root, ErrRootChild)
	}
	g.root = root
	return nil
}

func (g *Graph) valid(i NodeIndex) bool {
	return i >= 0 && int(i) < len(g.nodes)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Root returns the root index, or NoNode for an empty graph.
func (g *Graph) Root() NodeIndex {
	return g.root
}

// Node returns a pointer to node i for in-place mutation. An out-of-range index panics.
func (g *Graph) Node(i NodeIndex) *Node {
	if !g.valid(i) {
		panic(fmt.Sprintf("scene: node %d out of range [0, %d)", i, len(g.nodes)))
	}
	return &g.nodes[i]
}

// Parent returns the parent of i, or NoNode.
func (g *Graph) Parent(i NodeIndex) NodeIndex {
	return g.parent[i]
}

// Children returns the children of i in insertion order.
func (g *Graph) Children(i NodeIndex) []NodeIndex {
	return g.children[i]
}

// Contains reports whether i is a valid index.
func (g *Graph) Contains(i NodeIndex) bool {
	return g.valid(i)
}

// Validate checks that the graph is non-empty and every node is reachable from the root.
// Connect already rules out cycles and second parents.
func (g *Graph) Validate() error {
	if len(g.nodes) == 0 {
		return ErrEmptyGraph
	}
	seen := make([]bool, len(g.nodes))
	stack := []NodeIndex{g.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		seen[n] = true
		stack = append(stack, g.children[n]...)
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("node %d (%q): %w", i, g.nodes[i].Name, ErrUnreachable)
		}
	}
	return nil
}

// Flat computes every reachable node's world matrix as parent world * local, starting from the root with
// an identity parent. Nothing is cached; the result reflects the current node transforms.
//
// Returns:
//   - map[NodeIndex]mgl32.Mat4: world matrices keyed by node
func (g *Graph) Flat() map[NodeIndex]mgl32.Mat4 {
	world := make(map[NodeIndex]mgl32.Mat4, len(g.nodes))
	if g.root == NoNode {
		return world
	}

	type entry struct {
		node   NodeIndex
		parent mgl32.Mat4
	}
	stack := []entry{{node: g.root, parent: mgl32.Ident4()}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		m := e.parent.Mul4(g.nodes[e.node].Transform.Matrix())
		world[e.node] = m
		for _, c := range g.children[e.node] {
			stack = append(stack, entry{node: c, parent: m})
		}
	}
	return world
}

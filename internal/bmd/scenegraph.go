package bmd

import (
	"fmt"

	"bmd-codec/internal/binio"
)

// NodeKind is the tag of a scene graph token.
type NodeKind uint16

const (
	NodeEnd        NodeKind = 0x00
	NodeOpenChild  NodeKind = 0x01
	NodeCloseChild NodeKind = 0x02
	NodeJoint      NodeKind = 0x10
	NodeMaterial   NodeKind = 0x11
	NodeShape      NodeKind = 0x12
)

func (k NodeKind) String() string {
	switch k {
	case NodeEnd:
		return "end"
	case NodeOpenChild:
		return "open"
	case NodeCloseChild:
		return "close"
	case NodeJoint:
		return "joint"
	case NodeMaterial:
		return "material"
	case NodeShape:
		return "shape"
	}
	return fmt.Sprintf("node(0x%02x)", uint16(k))
}

// NoNode is the handle of a missing node and the not-found result of searches.
const NoNode = -1

// SceneNode is one record of the scene graph arena.
// Parent and Children are handles into SceneGraph.Nodes.
type SceneNode struct {
	Kind     NodeKind
	Index    int
	Parent   int
	Children []int
}

// SceneGraph is the hierarchy decoded from INF1.
// Nodes[Root] is the first node of the token stream.
type SceneGraph struct {
	LoadFlags   uint16
	PacketCount int
	VertexCount int
	Nodes       []SceneNode
	Root        int
}

// NewSceneGraph creates a graph holding a single root node.
func NewSceneGraph(kind NodeKind, index int) *SceneGraph {
	g := &SceneGraph{}
	g.Root = g.add(kind, index, NoNode)
	return g
}

func (g *SceneGraph) add(kind NodeKind, index, parent int) int {
	h := len(g.Nodes)
	g.Nodes = append(g.Nodes, SceneNode{Kind: kind, Index: index, Parent: parent})
	if parent != NoNode {
		g.Nodes[parent].Children = append(g.Nodes[parent].Children, h)
	}
	return h
}

// AddChild appends a new node under parent and returns its handle.
func (g *SceneGraph) AddChild(parent int, kind NodeKind, index int) int {
	return g.add(kind, index, parent)
}

func readSceneGraph(r *binio.Reader) (*SceneGraph, error) {
	sec, err := binio.OpenSection(r, tagINF1)
	if err != nil {
		return nil, err
	}
	g := &SceneGraph{}
	g.LoadFlags = r.U16()
	r.Skip(2)
	g.PacketCount = int(r.U32())
	g.VertexCount = int(r.U32())
	r.Seek(sec.At(int(r.U32())))

	readNode := func() (NodeKind, int) {
		return NodeKind(r.U16()), int(r.U16())
	}

	kind, idx := readNode()
	g.Root = g.add(kind, idx, NoNode)
	parent := g.Root
	for {
		kind, idx := readNode()
		if r.Err() != nil {
			return nil, fmt.Errorf("bmd: INF1 hierarchy: %w", r.Err())
		}
		switch kind {
		case NodeEnd:
			r.Seek(sec.End())
			return g, nil
		case NodeOpenChild:
			ck, ci := readNode()
			parent = g.add(ck, ci, parent)
		case NodeCloseChild:
			parent = g.Nodes[parent].Parent
		default:
			grand := g.Nodes[parent].Parent
			if grand == NoNode {
				return nil, fmt.Errorf("bmd: INF1 %s %d has no enclosing node", kind, idx)
			}
			parent = g.add(kind, idx, grand)
		}
		if parent == NoNode {
			return nil, fmt.Errorf("bmd: INF1 close token above root")
		}
	}
}

func (g *SceneGraph) write() []byte {
	w := binio.NewSection(tagINF1)
	w.U16(g.LoadFlags)
	w.U16(0xFFFF)
	w.U32(uint32(g.PacketCount))
	w.U32(uint32(g.VertexCount))
	w.U32(0x18)
	if len(g.Nodes) > 0 {
		g.writeNode(w.Writer, g.Root)
	}
	w.U16(uint16(NodeEnd))
	w.U16(0)
	return w.Finish()
}

func (g *SceneGraph) writeNode(w *binio.Writer, h int) {
	n := &g.Nodes[h]
	w.U16(uint16(n.Kind))
	w.U16(uint16(n.Index))
	if len(n.Children) == 0 {
		return
	}
	w.U16(uint16(NodeOpenChild))
	w.U16(0)
	for _, c := range n.Children {
		g.writeNode(w, c)
	}
	w.U16(uint16(NodeCloseChild))
	w.U16(0)
}

// Walk visits nodes depth-first in token order.
func (g *SceneGraph) Walk(fn func(h int, n *SceneNode)) {
	if len(g.Nodes) == 0 {
		return
	}
	var visit func(h int)
	visit = func(h int) {
		fn(h, &g.Nodes[h])
		for _, c := range g.Nodes[h].Children {
			visit(c)
		}
	}
	visit(g.Root)
}

// Find returns the handle of the first node with the given kind and index,
// or NoNode.
func (g *SceneGraph) Find(kind NodeKind, index int) int {
	found := NoNode
	g.Walk(func(h int, n *SceneNode) {
		if found == NoNode && n.Kind == kind && n.Index == index {
			found = h
		}
	})
	return found
}

// ParentIndex finds the node (kind, index) and returns the table index of its
// parent when the parent is of parentKind. Otherwise it returns NoNode.
// Shapes recover their material this way.
func (g *SceneGraph) ParentIndex(kind NodeKind, index int, parentKind NodeKind) int {
	h := g.Find(kind, index)
	if h == NoNode {
		return NoNode
	}
	p := g.Nodes[h].Parent
	if p == NoNode || g.Nodes[p].Kind != parentKind {
		return NoNode
	}
	return g.Nodes[p].Index
}

// Count returns how many nodes of kind the graph holds.
func (g *SceneGraph) Count(kind NodeKind) int {
	n := 0
	for i := range g.Nodes {
		if g.Nodes[i].Kind == kind {
			n++
		}
	}
	return n
}

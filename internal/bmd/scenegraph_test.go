package bmd

import (
	"bytes"
	"log"
	"slices"
	"strings"
	"testing"

	"bmd-codec/internal/binio"
)

// sampleScene builds Joint0 → [Material0 → [Shape0], Joint1 → [Material1 → [Shape1]]].
func sampleScene() *SceneGraph {
	g := NewSceneGraph(NodeJoint, 0)
	m0 := g.AddChild(g.Root, NodeMaterial, 0)
	g.AddChild(m0, NodeShape, 0)
	j1 := g.AddChild(g.Root, NodeJoint, 1)
	m1 := g.AddChild(j1, NodeMaterial, 1)
	g.AddChild(m1, NodeShape, 1)
	return g
}

func TestSceneGraphRoundTrip(t *testing.T) {
	g := sampleScene()
	g.LoadFlags = 2
	g.PacketCount = 3
	g.VertexCount = 40

	got, err := readSceneGraph(binio.NewReader(g.write()))
	if err != nil {
		t.Fatal(err)
	}
	if got.LoadFlags != 2 || got.PacketCount != 3 || got.VertexCount != 40 {
		t.Errorf("header = %d/%d/%d", got.LoadFlags, got.PacketCount, got.VertexCount)
	}
	if err := sameScene(g, got); err != nil {
		t.Fatal(err)
	}
}

func TestSceneGraphTokens(t *testing.T) {
	g := NewSceneGraph(NodeJoint, 0)
	g.AddChild(g.Root, NodeMaterial, 3)
	data := g.write()

	want := []uint16{0x10, 0, 0x01, 0, 0x11, 3, 0x02, 0, 0x00, 0}
	r := binio.NewReader(data)
	r.Seek(0x18)
	for i, w := range want {
		if got := r.U16(); got != w {
			t.Fatalf("token word %d = %#x, want %#x", i, got, w)
		}
	}
}

func TestSceneGraphParse(t *testing.T) {
	// J0 Open M0 Open S0 Close J1 Open S1 Close Close End
	w := binio.NewSection(tagINF1)
	w.U16(0)
	w.U16(0xFFFF)
	w.U32(0)
	w.U32(0)
	w.U32(0x18)
	for _, tok := range [][2]uint16{
		{0x10, 0}, {0x01, 0}, {0x11, 0}, {0x01, 0}, {0x12, 0}, {0x02, 0},
		{0x10, 1}, {0x01, 0}, {0x12, 1}, {0x02, 0}, {0x02, 0}, {0x00, 0},
	} {
		w.U16(tok[0])
		w.U16(tok[1])
	}
	g, err := readSceneGraph(binio.NewReader(w.Finish()))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		kind       NodeKind
		index      int
		parentKind NodeKind
		want       int
	}{
		{NodeMaterial, 0, NodeJoint, 0},
		{NodeShape, 0, NodeMaterial, 0},
		{NodeJoint, 1, NodeJoint, 0},
		{NodeShape, 1, NodeJoint, 1},
		{NodeShape, 1, NodeMaterial, NoNode},
		{NodeJoint, 0, NodeJoint, NoNode},
		{NodeShape, 7, NodeMaterial, NoNode},
	}
	for _, tt := range tests {
		if got := g.ParentIndex(tt.kind, tt.index, tt.parentKind); got != tt.want {
			t.Errorf("ParentIndex(%s %d, %s) = %d, want %d", tt.kind, tt.index, tt.parentKind, got, tt.want)
		}
	}
	if n := g.Count(NodeShape); n != 2 {
		t.Errorf("Count(shape) = %d, want 2", n)
	}
}

func TestSceneGraphCloseAboveRoot(t *testing.T) {
	w := binio.NewSection(tagINF1)
	w.U16(0)
	w.U16(0xFFFF)
	w.U32(0)
	w.U32(0)
	w.U32(0x18)
	for _, tok := range [][2]uint16{{0x10, 0}, {0x02, 0}, {0x00, 0}} {
		w.U16(tok[0])
		w.U16(tok[1])
	}
	if _, err := readSceneGraph(binio.NewReader(w.Finish())); err == nil {
		t.Fatal("expected an error for a close token above the root")
	}
}

func TestLinkBoneFamilies(t *testing.T) {
	g := NewSceneGraph(NodeJoint, 0)
	g.AddChild(g.Root, NodeJoint, 1)
	g.AddChild(g.Root, NodeJoint, 2)

	joints := make([]Joint, 3)
	linkBoneFamilies(g, joints)

	if joints[0].Parent != NoJoint {
		t.Errorf("joint 0 parent = %d, want none", joints[0].Parent)
	}
	for _, j := range []int{1, 2} {
		if joints[j].Parent != 0 {
			t.Errorf("joint %d parent = %d, want 0", j, joints[j].Parent)
		}
	}
	if !slices.Equal(joints[0].Children, []int{1, 2}) {
		t.Errorf("joint 0 children = %v, want [1 2]", joints[0].Children)
	}

	// The family survives a write/read of the hierarchy.
	back, err := readSceneGraph(binio.NewReader(g.write()))
	if err != nil {
		t.Fatal(err)
	}
	again := make([]Joint, 3)
	linkBoneFamilies(back, again)
	for i := range joints {
		if again[i].Parent != joints[i].Parent {
			t.Errorf("joint %d parent after round trip = %d", i, again[i].Parent)
		}
	}
}

func TestLinkBoneFamiliesThroughMaterials(t *testing.T) {
	g := sampleScene()
	joints := make([]Joint, 2)
	linkBoneFamilies(g, joints)
	if joints[1].Parent != 0 {
		t.Errorf("joint 1 parent = %d, want 0", joints[1].Parent)
	}
}

func TestLinkBoneFamiliesTraversalOrder(t *testing.T) {
	var logs bytes.Buffer
	saved := Logger
	Logger = log.New(&logs, "", 0)
	defer func() { Logger = saved }()

	// J0 Open J2 Open J1 Close Close End
	g := NewSceneGraph(NodeJoint, 0)
	j2 := g.AddChild(g.Root, NodeJoint, 2)
	g.AddChild(j2, NodeJoint, 1)
	back, err := readSceneGraph(binio.NewReader(g.write()))
	if err != nil {
		t.Fatal(err)
	}

	joints := make([]Joint, 3)
	linkBoneFamilies(back, joints)
	for i, want := range []int{NoJoint, 0, 1} {
		if joints[i].Parent != want {
			t.Errorf("joint %d parent = %d, want %d", i, joints[i].Parent, want)
		}
	}
	if !slices.Equal(joints[1].Children, []int{2}) {
		t.Errorf("joint 1 children = %v, want [2]", joints[1].Children)
	}
	if !strings.Contains(logs.String(), "carries index 2") {
		t.Errorf("index mismatch not reported, got %q", logs.String())
	}
}

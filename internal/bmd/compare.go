package bmd

import (
	"fmt"
	"slices"
)

// Equivalent compares two models by content: scene-graph shape, decoded
// vertex values within tol, vertex indices and resolved weights, joints and
// logical materials. Physical layout (sub-table order, dedup) is ignored.
// It returns the first difference found.
func Equivalent(a, b *Model, tol float32) error {
	if err := sameScene(a.Scene, b.Scene); err != nil {
		return err
	}
	if err := sameVertices(a.Vertices, b.Vertices, tol); err != nil {
		return err
	}
	if err := sameShapes(a.Shapes, b.Shapes); err != nil {
		return err
	}
	if len(a.Joints) != len(b.Joints) {
		return fmt.Errorf("joints: %d vs %d", len(a.Joints), len(b.Joints))
	}
	for i := range a.Joints {
		ja, jb := &a.Joints[i], &b.Joints[i]
		if ja.Name != jb.Name || ja.Parent != jb.Parent || !slices.Equal(ja.Children, jb.Children) {
			return fmt.Errorf("joint %d: name or family differs", i)
		}
		if recordOf(ja) != recordOf(jb) {
			return fmt.Errorf("joint %d %q: transform differs", i, ja.Name)
		}
	}
	if len(a.Materials) != len(b.Materials) {
		return fmt.Errorf("materials: %d vs %d", len(a.Materials), len(b.Materials))
	}
	for i := range a.Materials {
		if a.Materials[i] != b.Materials[i] {
			return fmt.Errorf("material %d %q differs", i, a.Materials[i].Name)
		}
	}
	if len(a.Textures) != len(b.Textures) {
		return fmt.Errorf("textures: %d vs %d", len(a.Textures), len(b.Textures))
	}
	for i := range a.Textures {
		if !a.Textures[i].Equal(b.Textures[i]) {
			return fmt.Errorf("texture %d %q differs", i, a.Textures[i].Name())
		}
	}
	return nil
}

func sameScene(a, b *SceneGraph) error {
	if len(a.Nodes) != len(b.Nodes) || a.Root != b.Root {
		return fmt.Errorf("scene graph: %d vs %d nodes", len(a.Nodes), len(b.Nodes))
	}
	for i := range a.Nodes {
		na, nb := &a.Nodes[i], &b.Nodes[i]
		if na.Kind != nb.Kind || na.Index != nb.Index || na.Parent != nb.Parent || !slices.Equal(na.Children, nb.Children) {
			return fmt.Errorf("scene node %d: %s %d vs %s %d", i, na.Kind, na.Index, nb.Kind, nb.Index)
		}
	}
	return nil
}

type approxVec[V any] interface {
	ApproxEqualThreshold(V, float32) bool
}

func sameArray[V approxVec[V]](name string, a, b []V, tol float32) error {
	if len(a) != len(b) {
		return fmt.Errorf("%s: %d vs %d elements", name, len(a), len(b))
	}
	for i := range a {
		if !a[i].ApproxEqualThreshold(b[i], tol) {
			return fmt.Errorf("%s[%d]: %v vs %v", name, i, a[i], b[i])
		}
	}
	return nil
}

func sameVertices(a, b *VertexData, tol float32) error {
	if err := sameArray("positions", a.Positions, b.Positions, tol); err != nil {
		return err
	}
	if err := sameArray("normals", a.Normals, b.Normals, tol); err != nil {
		return err
	}
	for k := range a.Colors {
		if err := sameArray(fmt.Sprintf("color%d", k), a.Colors[k], b.Colors[k], tol); err != nil {
			return err
		}
	}
	for k := range a.TexCoords {
		if err := sameArray(fmt.Sprintf("tex%d", k), a.TexCoords[k], b.TexCoords[k], tol); err != nil {
			return err
		}
	}
	return nil
}

func sameShapes(a, b []Shape) error {
	if len(a) != len(b) {
		return fmt.Errorf("shapes: %d vs %d", len(a), len(b))
	}
	for si := range a {
		sa, sb := &a[si], &b[si]
		if !slices.Equal(sa.Desc, sb.Desc) || len(sa.Packets) != len(sb.Packets) {
			return fmt.Errorf("shape %d: descriptor or packet count differs", si)
		}
		for pi := range sa.Packets {
			pa, pb := &sa.Packets[pi], &sb.Packets[pi]
			if len(pa.Primitives) != len(pb.Primitives) {
				return fmt.Errorf("shape %d packet %d: primitive count differs", si, pi)
			}
			for k := range pa.Primitives {
				qa, qb := &pa.Primitives[k], &pb.Primitives[k]
				if qa.Type != qb.Type || len(qa.Vertices) != len(qb.Vertices) {
					return fmt.Errorf("shape %d packet %d primitive %d differs", si, pi, k)
				}
				for vi := range qa.Vertices {
					va, vb := &qa.Vertices[vi], &qb.Vertices[vi]
					if va.Index != vb.Index {
						return fmt.Errorf("shape %d packet %d primitive %d vertex %d: indices differ", si, pi, k, vi)
					}
					if !va.Weight.Equal(vb.Weight) {
						return fmt.Errorf("shape %d packet %d primitive %d vertex %d: weight differs", si, pi, k, vi)
					}
				}
			}
		}
	}
	return nil
}

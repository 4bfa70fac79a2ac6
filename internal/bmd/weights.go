package bmd

// drawWeight resolves one draw-matrix entry to a weight list.
func drawWeight(d DrawEntry, env *Envelopes) Weight {
	if !d.Weighted {
		return Rigid(d.Index)
	}
	return env.Weights[d.Index].clone()
}

// rigidWeight resolves a draw entry to a single bone. An envelope entry
// collapses to its heaviest bone, the first on ties.
func rigidWeight(d DrawEntry, env *Envelopes) Weight {
	if !d.Weighted {
		return Rigid(d.Index)
	}
	e := env.Weights[d.Index]
	if len(e.Bones) == 0 {
		return Weight{}
	}
	best := 0
	for k := range e.Weights {
		if e.Weights[k] > e.Weights[best] {
			best = k
		}
	}
	return Rigid(e.Bones[best])
}

// resolveWeights fills Vertex.Weight for every vertex of every shape.
// A vertex's position-matrix index is a slot in its packet's matrix table;
// shapes without that attribute give every vertex of a packet the single
// rigid weight of its slot 0.
func resolveWeights(shapes []Shape, draw []DrawEntry, env *Envelopes) {
	for si := range shapes {
		s := &shapes[si]
		perVertex := s.Has(AttrPosMtxIdx)
		for pi := range s.Packets {
			var packetWeight Weight
			havePacketWeight := false
			if !perVertex {
				if di, ok := s.MatrixIndex(pi, 0); ok {
					packetWeight = rigidWeight(draw[di], env)
					havePacketWeight = true
				}
			}
			for _, prim := range s.Packets[pi].Primitives {
				for vi := range prim.Vertices {
					v := &prim.Vertices[vi]
					if !perVertex {
						if havePacketWeight {
							v.Weight = packetWeight.clone()
						}
						continue
					}
					di, ok := s.MatrixIndex(pi, v.Index[AttrPosMtxIdx])
					if !ok {
						continue
					}
					v.Weight = drawWeight(draw[di], env)
				}
			}
		}
	}
}

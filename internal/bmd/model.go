package bmd

import (
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tiendc/go-deepcopy"

	"bmd-codec/internal/binio"
	"bmd-codec/internal/texture"
)

const (
	tagINF1 = "INF1"
	tagVTX1 = "VTX1"
	tagEVP1 = "EVP1"
	tagDRW1 = "DRW1"
	tagJNT1 = "JNT1"
	tagSHP1 = "SHP1"
	tagMAT3 = "MAT3"
	tagMDL3 = "MDL3"
)

// File magics. The BDL variant carries an MDL3 block after MAT3.
const (
	MagicBMD = "J3D2bmd3"
	MagicBDL = "J3D2bdl4"
)

const fileHeaderSize = 0x20

// ErrBadMagic is returned when a file or section tag does not match.
var ErrBadMagic = binio.ErrBadMagic

// Logger receives non-fatal decode diagnostics.
var Logger = log.New(os.Stderr, "bmd: ", 0)

// Model is one loaded BMD/BDL file.
type Model struct {
	Magic     string
	Scene     *SceneGraph
	Vertices  *VertexData
	Envelopes *Envelopes
	Draw      []DrawEntry
	Joints    []Joint
	Shapes    []Shape
	Materials []Material

	// MDL is the raw MDL3 section of BDL files, nil for BMD.
	MDL []byte

	// Textures are shared between clones and never mutated by the codec.
	Textures []texture.Texture
}

// IsBDL reports whether the model is written with the MDL3 block.
func (m *Model) IsBDL() bool { return m.Magic == MagicBDL }

// Parse reads a BMD or BDL file from disk.
func Parse(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bmd: read %s: %w", path, err)
	}
	m, err := Read(data)
	if err != nil {
		return nil, fmt.Errorf("bmd: %s: %w", path, err)
	}
	return m, nil
}

// Read decodes a whole file and runs the post-load linking passes.
func Read(data []byte) (*Model, error) {
	r := binio.NewReader(data)
	magic := string(r.Bytes(8))
	r.U32() // file size
	r.U32() // section count
	if r.Err() != nil {
		return nil, fmt.Errorf("bmd: file header: %w", r.Err())
	}
	if magic != MagicBMD && magic != MagicBDL {
		return nil, fmt.Errorf("%w: file magic %q", ErrBadMagic, magic)
	}
	r.Seek(fileHeaderSize)

	m := &Model{Magic: magic}
	var err error
	if m.Scene, err = readSceneGraph(r); err != nil {
		return nil, err
	}
	if m.Vertices, err = readVertexData(r); err != nil {
		return nil, err
	}
	if m.Envelopes, err = readEnvelopes(r); err != nil {
		return nil, err
	}
	if m.Draw, err = readDrawMatrices(r); err != nil {
		return nil, err
	}
	if m.Joints, err = readJoints(r); err != nil {
		return nil, err
	}
	if m.Shapes, err = readShapes(r); err != nil {
		return nil, err
	}
	if m.Materials, err = readMaterials(r); err != nil {
		return nil, err
	}
	if m.IsBDL() {
		if m.MDL, err = readMDL(r); err != nil {
			return nil, err
		}
	}
	if r.Pos() < r.Len() {
		if m.Textures, err = texture.ReadTEX1(r); err != nil {
			return nil, err
		}
	}

	m.assignInverseBinds()
	resolveWeights(m.Shapes, m.Draw, m.Envelopes)
	linkBoneFamilies(m.Scene, m.Joints)
	m.ResolveTextureNames()
	return m, nil
}

// assignInverseBinds copies EVP1's matrices into the joints. A file without
// matrices gets identity for every joint, in both tables.
func (m *Model) assignInverseBinds() {
	if len(m.Envelopes.InverseBinds) == 0 {
		m.Envelopes.InverseBinds = make([]mgl32.Mat3x4, len(m.Joints))
		for i := range m.Joints {
			m.Envelopes.InverseBinds[i] = Identity3x4
			m.Joints[i].InverseBind = Identity3x4
		}
		return
	}
	for i := range m.Joints {
		if i < len(m.Envelopes.InverseBinds) {
			m.Joints[i].InverseBind = m.Envelopes.InverseBinds[i]
		} else {
			m.Joints[i].InverseBind = Identity3x4
		}
	}
}

// ResolveTextureNames fills every material's TextureNames from Textures.
// Slots whose index is outside the texture list are left empty.
func (m *Model) ResolveTextureNames() {
	for i := range m.Materials {
		mat := &m.Materials[i]
		for k, t := range mat.Textures {
			mat.TextureNames[k] = ""
			if t.Set && t.Value >= 0 && t.Value < len(m.Textures) {
				mat.TextureNames[k] = m.Textures[t.Value].Name()
			}
		}
	}
}

// SetTexture points texture slot of material mat at the texture named name.
func (m *Model) SetTexture(mat, slot int, name string) error {
	idx, ok := texture.BuildIndex(m.Textures).Lookup(name)
	if !ok {
		return fmt.Errorf("bmd: no texture named %q", name)
	}
	m.Materials[mat].Textures[slot] = Some(idx)
	m.Materials[mat].TextureNames[slot] = m.Textures[idx].Name()
	return nil
}

// MaterialForShape returns the index of the material enclosing shape i in the
// scene graph, or NoNode.
func (m *Model) MaterialForShape(i int) int {
	return m.Scene.ParentIndex(NodeShape, i, NodeMaterial)
}

// Write encodes the model. The scene graph's packet and vertex counts are
// recomputed from the current geometry.
func (m *Model) Write() ([]byte, error) {
	magic := m.Magic
	if magic == "" {
		magic = MagicBMD
	}

	scene := *m.Scene
	scene.VertexCount = referencedPositions(m.Shapes)
	scene.PacketCount = 0
	for i := range m.Shapes {
		scene.PacketCount += len(m.Shapes[i].Packets)
	}
	env := m.Envelopes
	if env == nil {
		env = &Envelopes{}
	}

	chunks := [][]byte{
		scene.write(),
		m.Vertices.write(),
		env.write(m.Joints),
		writeDrawMatrices(m.Draw),
		writeJoints(m.Joints),
		writeShapes(m.Shapes),
		writeMaterials(m.Materials),
	}
	if magic == MagicBDL {
		if len(m.MDL) == 0 {
			return nil, fmt.Errorf("bmd: %s model has no MDL3 block", magic)
		}
		chunks = append(chunks, m.MDL)
	}
	tex, err := texture.WriteTEX1(m.Textures)
	if err != nil {
		return nil, fmt.Errorf("bmd: %w", err)
	}
	chunks = append(chunks, tex)

	total := fileHeaderSize
	for _, c := range chunks {
		total += len(c)
	}
	w := binio.NewWriter()
	w.Write([]byte(magic))
	w.U32(uint32(total))
	w.U32(uint32(len(chunks)))
	w.Tag("SVR3")
	w.Fill(0xFF, 12)
	for _, c := range chunks {
		w.Write(c)
	}
	return w.Bytes(), nil
}

// referencedPositions is one past the highest position index any shape
// draws, so padding entries in the position table are not counted.
func referencedPositions(shapes []Shape) int {
	n := 0
	for i := range shapes {
		s := &shapes[i]
		if !s.Has(AttrPosition) {
			continue
		}
		for _, p := range s.Packets {
			for _, prim := range p.Primitives {
				for _, v := range prim.Vertices {
					if v.Index[AttrPosition]+1 > n {
						n = v.Index[AttrPosition] + 1
					}
				}
			}
		}
	}
	return n
}

// WriteFile encodes the model to path.
func (m *Model) WriteFile(path string) error {
	data, err := m.Write()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("bmd: write %s: %w", path, err)
	}
	return nil
}

// Clone returns a deep copy of the model. Textures are shared.
func (m *Model) Clone() (*Model, error) {
	src := *m
	src.Textures = nil
	out := &Model{}
	if err := deepcopy.Copy(out, &src); err != nil {
		return nil, fmt.Errorf("bmd: clone: %w", err)
	}
	out.Textures = slices.Clone(m.Textures)
	return out, nil
}

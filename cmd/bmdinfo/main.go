package main

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"bmd-codec/internal/bmd"
	"bmd-codec/internal/skeleton"
	"bmd-codec/internal/texture"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: bmdinfo model.bmd...")
		os.Exit(2)
	}
	for _, arg := range os.Args[1:] {
		m, err := bmd.Parse(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parse error %s: %v\n", arg, err)
			continue
		}
		fmt.Printf("\n=== %s (%s shapes=%d joints=%d materials=%d textures=%d) ===\n",
			arg, m.Magic, len(m.Shapes), len(m.Joints), len(m.Materials), len(m.Textures))

		fmt.Println("--- SCENE ---")
		printScene(m.Scene, m.Scene.Root, 1)

		fmt.Println("--- VERTICES ---")
		for _, f := range m.Vertices.Formats {
			fmt.Printf("  attr=%d count=%d type=%d frac=%d\n", f.Attr, f.Count, f.Type, f.Frac)
		}
		fmt.Printf("  positions=%d normals=%d color0=%d color1=%d tex0=%d\n",
			len(m.Vertices.Positions), len(m.Vertices.Normals),
			len(m.Vertices.Colors[0]), len(m.Vertices.Colors[1]), len(m.Vertices.TexCoords[0]))

		fmt.Println("--- SKINNING ---")
		fmt.Printf("  envelopes=%d draw=%d\n", len(m.Envelopes.Weights), len(m.Draw))
		for i, j := range m.Joints {
			fmt.Printf("  Joint[%d] %q parent=%d children=%v\n", i, j.Name, j.Parent, j.Children)
		}

		fmt.Println("--- SHAPES (bind pose) ---")
		posed := skeleton.SkinnedPositions(m)
		for i, s := range m.Shapes {
			var attrs []string
			for _, a := range s.Desc {
				attrs = append(attrs, fmt.Sprintf("%d/%d", a.Attr, a.Input))
			}
			minV, maxV := bounds(posed[i])
			fmt.Printf("  Shape[%d]: packets=%d material=%d desc=[%s] min=(%.0f,%.0f,%.0f) max=(%.0f,%.0f,%.0f)\n",
				i, len(s.Packets), m.MaterialForShape(i), strings.Join(attrs, " "),
				minV[0], minV[1], minV[2], maxV[0], maxV[1], maxV[2])
		}

		fmt.Println("--- MATERIALS ---")
		for i := range m.Materials {
			mat := &m.Materials[i]
			var tex []string
			for _, n := range mat.TextureNames {
				if n != "" {
					tex = append(tex, n)
				}
			}
			fmt.Printf("  Material[%d] %q flag=%d textures=%v\n", i, mat.Name, mat.Flag, tex)
		}

		fmt.Println("--- TEXTURES ---")
		for i, t := range m.Textures {
			if raw, ok := t.(*texture.Raw); ok {
				fmt.Printf("  Texture[%d] %q format=%d %dx%d mips=%d\n",
					i, raw.Name(), raw.Format(), raw.Width(), raw.Height(), raw.MipCount())
				continue
			}
			fmt.Printf("  Texture[%d] %q\n", i, t.Name())
		}
	}
}

func printScene(g *bmd.SceneGraph, h, depth int) {
	n := &g.Nodes[h]
	fmt.Printf("%s%s %d\n", strings.Repeat("  ", depth), n.Kind, n.Index)
	for _, c := range n.Children {
		printScene(g, c, depth+1)
	}
}

func bounds(vs []mgl32.Vec3) (minV, maxV [3]float64) {
	if len(vs) == 0 {
		return
	}
	minV = [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	maxV = [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range vs {
		for k := 0; k < 3; k++ {
			minV[k] = math.Min(minV[k], float64(v[k]))
			maxV[k] = math.Max(maxV[k], float64(v[k]))
		}
	}
	return
}

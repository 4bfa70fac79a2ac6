package batch

import (
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"bmd-codec/internal/binio"
	"bmd-codec/internal/bmd"
)

func writeModel(t *testing.T, path, magic string) {
	t.Helper()
	g := bmd.NewSceneGraph(bmd.NodeJoint, 0)
	g.AddChild(g.Root, bmd.NodeMaterial, 0)

	var mat bmd.Material
	mat.Name = "mat"
	mat.MaterialColors[0] = bmd.Some(color.RGBA{255, 0, 0, 255})

	m := &bmd.Model{
		Magic:     magic,
		Scene:     g,
		Vertices:  &bmd.VertexData{},
		Joints:    []bmd.Joint{{Name: "root", Scale: mgl32.Vec3{1, 1, 1}}},
		Materials: []bmd.Material{mat},
	}
	if magic == bmd.MagicBDL {
		m.MDL = binio.NewSection("MDL3").Finish()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteFile(path); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeModel(t, filepath.Join(in, "a.bmd"), bmd.MagicBMD)
	writeModel(t, filepath.Join(in, "sub", "b.bdl"), bmd.MagicBDL)
	if err := os.WriteFile(filepath.Join(in, "bad.bmd"), []byte("not a model"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(in, "notes.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := Find(in)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.bmd", "bad.bmd", filepath.Join("sub", "b.bdl")}
	if !slices.Equal(files, want) {
		t.Fatalf("Find = %v, want %v", files, want)
	}

	cfg := Config{InputDir: in, OutputDir: out, Workers: 2, Verify: true, SwatchFormat: "tga", SwatchCell: 2}
	results := Run(cfg, files)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}

	tests := []struct {
		idx     int
		success bool
		swatch  string
	}{
		{0, true, "a.tga"},
		{1, false, ""},
		{2, true, filepath.Join("sub", "b.tga")},
	}
	for _, tt := range tests {
		r := results[tt.idx]
		if r.Success != tt.success {
			t.Errorf("%s: success = %v (%s)", r.Input, r.Success, r.Error)
			continue
		}
		if !tt.success {
			if r.Error == "" {
				t.Errorf("%s: failure without error", r.Input)
			}
			continue
		}
		if !r.Verified || r.Materials != 1 || r.Joints != 1 || r.InSize != r.OutSize {
			t.Errorf("%s: result %+v", r.Input, r)
		}
		if r.Swatch != tt.swatch {
			t.Errorf("%s: swatch = %q, want %q", r.Input, r.Swatch, tt.swatch)
		}
		for _, p := range []string{r.Output, r.Swatch} {
			if _, err := os.Stat(filepath.Join(out, p)); err != nil {
				t.Error(err)
			}
		}
	}

	manifest := filepath.Join(out, "manifest.json")
	if err := WriteManifest(manifest, results); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatal(err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[1].Input != "sub/b.bdl" || !entries[1].Verified {
		t.Errorf("manifest = %+v", entries)
	}
}

func TestRunWithoutSwatches(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeModel(t, filepath.Join(in, "m.bmd"), bmd.MagicBMD)

	results := Run(Config{InputDir: in, OutputDir: out, Workers: 1}, []string{"m.bmd"})
	if !results[0].Success || results[0].Swatch != "" || results[0].Verified {
		t.Errorf("result = %+v", results[0])
	}
}

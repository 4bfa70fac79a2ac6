package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"input_dir": "models", "verify": true, "swatch_format": "TGA", "swatch_cell": 16}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InputDir != "models" || !cfg.Verify || cfg.SwatchFormat != "TGA" || cfg.SwatchCell != 16 {
		t.Errorf("loaded %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		flags Flags
		want  Config
	}{
		{
			name: "defaults",
			want: Config{InputDir: ".", OutputDir: "out", Workers: runtime.NumCPU(), SwatchCell: 32},
		},
		{
			name: "relative output joins input",
			cfg:  Config{InputDir: "data", OutputDir: "conv", SwatchFormat: "WebP", Workers: 2},
			want: Config{InputDir: "data", OutputDir: filepath.Join("data", "conv"), Workers: 2, SwatchFormat: FormatWebP, SwatchCell: 32},
		},
		{
			name:  "flags override",
			cfg:   Config{InputDir: "data", OutputDir: "conv", Workers: 2, SwatchCell: 8},
			flags: Flags{InputDir: "in", OutputDir: "dst", Workers: 5, Verify: true, SwatchFormat: "tga"},
			want:  Config{InputDir: "in", OutputDir: "dst", Workers: 5, Verify: true, SwatchFormat: FormatTGA, SwatchCell: 8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Resolve(tt.flags)
			if cfg != tt.want {
				t.Errorf("Resolve = %+v, want %+v", cfg, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	for _, f := range []string{"", FormatWebP, FormatTGA} {
		c := Config{SwatchFormat: f}
		if err := c.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v", f, err)
		}
	}
	c := Config{SwatchFormat: "png"}
	if err := c.Validate(); err == nil {
		t.Error("expected error for png")
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Swatch image formats.
const (
	FormatWebP = "webp"
	FormatTGA  = "tga"
)

// Config holds the paths and settings of a batch conversion.
type Config struct {
	// Paths
	InputDir  string `json:"input_dir"`
	OutputDir string `json:"output_dir"`

	// Conversion settings
	Workers int  `json:"workers"`
	Verify  bool `json:"verify"`

	// Material swatch output; empty format disables swatches
	SwatchFormat string `json:"swatch_format"`
	SwatchCell   int    `json:"swatch_cell"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Verify {
		c.Verify = true
	}
	if flags.SwatchFormat != "" {
		c.SwatchFormat = flags.SwatchFormat
	}

	if c.InputDir == "" {
		c.InputDir = "."
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.InputDir, "out")
	} else if !filepath.IsAbs(c.OutputDir) && flags.OutputDir == "" {
		c.OutputDir = filepath.Join(c.InputDir, c.OutputDir)
	}

	c.SwatchFormat = strings.ToLower(c.SwatchFormat)
	if c.SwatchCell <= 0 {
		c.SwatchCell = 32
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate reports settings Resolve cannot repair.
func (c *Config) Validate() error {
	switch c.SwatchFormat {
	case "", FormatWebP, FormatTGA:
		return nil
	}
	return fmt.Errorf("config: unknown swatch format %q", c.SwatchFormat)
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	InputDir     string
	OutputDir    string
	Workers      int
	Verify       bool
	SwatchFormat string
}

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bmd-codec/internal/bmd"
	"bmd-codec/internal/swatch"
)

func writeSwatch(path, format string, cell int) error {
	m, err := bmd.Parse(path)
	if err != nil {
		return err
	}
	dst := strings.TrimSuffix(path, filepath.Ext(path)) + "_materials." + format
	if err := swatch.WriteFile(dst, m.Materials, cell, format); err != nil {
		return fmt.Errorf("%s: %w", dst, err)
	}
	fmt.Printf("OK  %s -> %s  (%d materials)\n", path, dst, len(m.Materials))
	for i := range m.Materials {
		mat := &m.Materials[i]
		var tex []string
		for _, n := range mat.TextureNames {
			if n != "" {
				tex = append(tex, n)
			}
		}
		fmt.Printf("    [%d] %s  textures=%v\n", i, mat.Name, tex)
	}
	return nil
}

func main() {
	format := flag.String("format", "webp", "Output format: webp or tga")
	cell := flag.Int("cell", 32, "Pixel size of one color cell")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: matswatch [-format webp|tga] [-cell N] model.bmd...")
		os.Exit(2)
	}

	errors := 0
	for _, path := range flag.Args() {
		if err := writeSwatch(path, *format, *cell); err != nil {
			fmt.Fprintf(os.Stderr, "ERR %v\n", err)
			errors++
		}
	}
	if errors > 0 {
		fmt.Printf("\nDone with %d error(s).\n", errors)
		os.Exit(1)
	}
	fmt.Println("\nDone. All swatches written.")
}

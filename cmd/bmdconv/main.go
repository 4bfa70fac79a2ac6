package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bmd-codec/internal/batch"
	"bmd-codec/internal/config"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	testN := flag.Int("test", 0, "Convert only first N files for testing")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	inputDir := flag.String("input", "", "Directory scanned for .bmd/.bdl files (default: .)")
	outputDir := flag.String("output", "", "Output directory (default: <input>/out)")
	verify := flag.Bool("verify", false, "Reload every written file and compare it with the source")
	swatchFmt := flag.String("swatch", "", "Also write material swatches: webp or tga")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		InputDir:     *inputDir,
		OutputDir:    *outputDir,
		Workers:      *workers,
		Verify:       *verify,
		SwatchFormat: *swatchFmt,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	files, err := batch.Find(cfg.InputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Limit for testing
	if *testN > 0 && *testN < len(files) {
		files = files[:*testN]
	}

	if len(files) == 0 {
		fmt.Println("No models to convert.")
		os.Exit(0)
	}

	mode := ""
	if cfg.Verify {
		mode = " (verify)"
	}
	fmt.Printf("BMD/BDL round-trip%s\n", mode)
	fmt.Printf("Files: %d, Workers: %d\n", len(files), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results := batch.Run(batch.Config{
		InputDir:     cfg.InputDir,
		OutputDir:    cfg.OutputDir,
		Workers:      cfg.Workers,
		Verify:       cfg.Verify,
		SwatchFormat: cfg.SwatchFormat,
		SwatchCell:   cfg.SwatchCell,
	}, files)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Converted: %d/%d\n", success, len(files))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := min(len(errors), 20)
		for _, e := range errors[:limit] {
			fmt.Printf("  %s: %s\n", e.Input, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	os.MkdirAll(cfg.OutputDir, 0755)
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bmd-codec/internal/bmd"
	"bmd-codec/internal/swatch"
)

// Config holds the settings shared by every job of a batch run.
type Config struct {
	InputDir     string
	OutputDir    string
	Workers      int
	Verify       bool
	SwatchFormat string
	SwatchCell   int
}

// Result holds the outcome of processing one file.
type Result struct {
	Input     string
	Output    string
	Swatch    string
	Shapes    int
	Joints    int
	Materials int
	Textures  int
	InSize    int
	OutSize   int
	Verified  bool
	Success   bool
	Error     string
}

// Find lists the .bmd and .bdl files under dir, relative to it.
func Find(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".bmd", ".bdl":
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: scan %s: %w", dir, err)
	}
	return files, nil
}

// Run round-trips all files using a worker pool. Each job owns its model;
// nothing is shared between workers.
func Run(cfg Config, files []string) []Result {
	total := len(files)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f files/sec\n", p, total, rate)
				}
			}
		}
	}()

	workers := max(cfg.Workers, 1)
	fileChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				results[idx] = processFile(cfg, files[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range files {
		fileChan <- i
	}
	close(fileChan)

	wg.Wait()
	close(done)

	return results
}

func processFile(cfg Config, rel string) Result {
	res := Result{Input: rel, Output: rel}
	fail := func(err error) Result {
		res.Error = err.Error()
		return res
	}

	data, err := os.ReadFile(filepath.Join(cfg.InputDir, rel))
	if err != nil {
		return fail(err)
	}
	res.InSize = len(data)

	m, err := bmd.Read(data)
	if err != nil {
		return fail(err)
	}
	res.Shapes = len(m.Shapes)
	res.Joints = len(m.Joints)
	res.Materials = len(m.Materials)
	res.Textures = len(m.Textures)

	out, err := m.Write()
	if err != nil {
		return fail(err)
	}
	res.OutSize = len(out)

	if cfg.Verify {
		back, err := bmd.Read(out)
		if err != nil {
			return fail(fmt.Errorf("verify: reload: %w", err))
		}
		if err := bmd.Equivalent(m, back, 1e-5); err != nil {
			return fail(fmt.Errorf("verify: %w", err))
		}
		res.Verified = true
	}

	outPath := filepath.Join(cfg.OutputDir, rel)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fail(err)
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return fail(err)
	}

	if cfg.SwatchFormat != "" {
		res.Swatch = strings.TrimSuffix(rel, filepath.Ext(rel)) + "." + cfg.SwatchFormat
		if err := swatch.WriteFile(filepath.Join(cfg.OutputDir, res.Swatch), m.Materials, cfg.SwatchCell, cfg.SwatchFormat); err != nil {
			return fail(err)
		}
	}

	res.Success = true
	return res
}

package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ManifestEntry represents one converted file in the output manifest.
type ManifestEntry struct {
	Input     string `json:"input"`
	Output    string `json:"output"`
	Swatch    string `json:"swatch,omitempty"`
	Shapes    int    `json:"shapes"`
	Joints    int    `json:"joints"`
	Materials int    `json:"materials"`
	Textures  int    `json:"textures"`
	InSize    int    `json:"in_size"`
	OutSize   int    `json:"out_size"`
	Verified  bool   `json:"verified"`
}

// WriteManifest writes the successful results to path as JSON.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		entries = append(entries, ManifestEntry{
			Input:     filepath.ToSlash(r.Input),
			Output:    filepath.ToSlash(r.Output),
			Swatch:    filepath.ToSlash(r.Swatch),
			Shapes:    r.Shapes,
			Joints:    r.Joints,
			Materials: r.Materials,
			Textures:  r.Textures,
			InSize:    r.InSize,
			OutSize:   r.OutSize,
			Verified:  r.Verified,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

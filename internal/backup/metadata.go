package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MetadataFilename is the cycle summary written at the backup root after
// each run. Informational only: retention decisions come exclusively from
// artifact mtimes, never from this file.
const MetadataFilename = "metadata.json"

// WriteMetadata persists the run summary at the backup root.
func WriteMetadata(root string, run *Run) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("ensure backup root %q: %w", root, err)
	}

	path := filepath.Join(root, MetadataFilename)
	jsonFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metadata file %q: %w", path, err)
	}
	defer jsonFile.Close()

	encoder := json.NewEncoder(jsonFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(run); err != nil {
		return fmt.Errorf("encode metadata JSON: %w", err)
	}
	return nil
}

// LoadMetadata reads a previously written run summary.
func LoadMetadata(root string) (*Run, error) {
	path := filepath.Join(root, MetadataFilename)
	jsonFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open metadata file %q: %w", path, err)
	}
	defer jsonFile.Close()

	var run Run
	if err := json.NewDecoder(jsonFile).Decode(&run); err != nil {
		return nil, fmt.Errorf("decode metadata JSON: %w", err)
	}
	return &run, nil
}

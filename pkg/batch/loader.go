package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads, parses, defaults, and validates a batch manifest from path.
// Format is chosen by extension (.yaml/.yml/.json); an unrecognized
// extension tries YAML first, then JSON, same as the teacher's manifest
// loader.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("batch: manifest not found: %s", path)
		}
		return nil, fmt.Errorf("batch: failed to read manifest: %w", err)
	}
	return LoadFromBytes(data, path)
}

// LoadFromBytes parses, defaults, and validates a batch manifest from raw
// bytes. path is used only to pick a parser by extension.
func LoadFromBytes(data []byte, path string) (*Manifest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("batch: manifest is empty")
	}

	m, err := parseManifest(data, path)
	if err != nil {
		return nil, err
	}

	m.ApplyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseManifest(data []byte, path string) (*Manifest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		if m, err := parseYAML(data); err == nil {
			return m, nil
		}
		m, err := parseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("batch: failed to parse manifest (tried YAML and JSON): %w", err)
		}
		return m, nil
	}
}

func parseJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("batch: invalid JSON manifest: %w", err)
	}
	return &m, nil
}

func parseYAML(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("batch: invalid YAML manifest: %w", err)
	}
	return &m, nil
}

package reportwriter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveData writes a submission as indented JSON so it can be reloaded to
// prefill a form later.
func SaveData(path string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return fmt.Errorf("reportwriter: encode data: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("reportwriter: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("reportwriter: write data %s: %w", path, err)
	}
	return nil
}

// LoadData reads a submission written by SaveData.
func LoadData(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reportwriter: read data %s: %w", path, err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("reportwriter: decode data %s: %w", path, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

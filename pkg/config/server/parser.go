package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/genmcp/browser-mcp/pkg/config"
)

// ParseConfigFile reads and parses a server config file, then applies defaults.
func ParseConfigFile(path string) (*BrowserServerConfigFile, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path to server config file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read server config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses the YAML (or JSON) contents of a server config file and applies defaults.
func ParseConfig(data []byte) (*BrowserServerConfigFile, error) {
	configFile := &BrowserServerConfigFile{}
	if err := yaml.Unmarshal(data, configFile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server config file: %w", err)
	}

	configFile.ApplyDefaults()
	return configFile, nil
}

func (f *BrowserServerConfigFile) UnmarshalJSON(data []byte) error {
	var header struct {
		Kind          string `json:"kind"`
		SchemaVersion string `json:"schemaVersion"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return err
	}

	if header.Kind == "" {
		return fmt.Errorf("kind field is required, expected %s", KindBrowserServerConfig)
	}
	if header.Kind != KindBrowserServerConfig {
		return fmt.Errorf("invalid kind %s, expected %s", header.Kind, KindBrowserServerConfig)
	}
	if header.SchemaVersion != config.SchemaVersion {
		return fmt.Errorf("invalid schema version %s, expected %s - please migrate your file and handle any breaking changes", header.SchemaVersion, config.SchemaVersion)
	}

	f.Kind = header.Kind
	f.SchemaVersion = header.SchemaVersion

	return json.Unmarshal(data, &f.BrowserServerConfig)
}

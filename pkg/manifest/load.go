package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "~/.follow.yaml"

// Format is a configuration file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the encoding from a file extension. YAML is the default.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes a manifest.
func Parse(data []byte, format Format) (*Manifest, error) {
	m := &Manifest{}
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case FormatYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(m); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return m, nil
}

// Load reads and parses the manifest at path. A missing file returns an
// error wrapping os.ErrNotExist so callers can fall back to defaults.
func Load(path string) (*Manifest, error) {
	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Marshal encodes a manifest.
func Marshal(m *Manifest, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(m)
	case FormatYAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// Save writes the manifest to path, choosing the format by extension.
func Save(m *Manifest, path string) error {
	path = ExpandPath(path)
	data, err := Marshal(m, FormatFor(path))
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}

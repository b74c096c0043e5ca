package utilgen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/yacobolo/utilgen/internal/jsconfig"
)

// ErrNoDescriptor is returned by FindDescriptor when a directory has none.
var ErrNoDescriptor = errors.New("no descriptor found")

// DescriptorNames are the file names FindDescriptor looks for, in order.
var DescriptorNames = []string{
	"tailwind.config.js",
	"tailwind.config.cjs",
	"tailwind.config.mjs",
	"tailwind.config.ts",
	"utilgen.config.yaml",
	"utilgen.config.yml",
	"utilgen.config.json",
	"utilgen.config.toml",
}

// FindDescriptor returns the first descriptor file present in dir.
func FindDescriptor(dir string) (string, error) {
	for _, name := range DescriptorNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
		if !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s)", ErrNoDescriptor, dir, strings.Join(DescriptorNames, ", "))
}

// LoadDescriptor reads a descriptor, choosing the format by extension.
func LoadDescriptor(path string) (*Descriptor, error) {
	raw, err := loadRaw(path)
	if err != nil {
		return nil, err
	}
	return DescriptorFromMap(path, raw)
}

func loadRaw(path string) (map[string]any, error) {
	if _, ok := jsconfig.LangForPath(path); ok {
		raw, err := jsconfig.Load(path)
		var se *jsconfig.SyntaxError
		if errors.As(err, &se) {
			return nil, &DescriptorError{File: path, Line: se.Line, Column: se.Column, Msg: se.Msg}
		}
		return raw, err
	}

	// #nosec G304 - path comes from trusted configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		return decodeYAML(path, data)
	case ".toml":
		return decodeTOML(path, data)
	default:
		return nil, fmt.Errorf("unsupported descriptor extension %q", ext)
	}
}

// decodeYAML also reads JSON, which is a subset of YAML.
func decodeYAML(path string, data []byte) (map[string]any, error) {
	var raw map[string]any
	err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&raw)
	if errors.Is(err, io.EOF) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, &DescriptorError{File: path, Line: yamlErrorLine(err), Msg: err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// yamlErrorLine extracts N from "yaml: line N: ..." messages.
func yamlErrorLine(err error) int {
	var line int
	msg := err.Error()
	if i := strings.Index(msg, "line "); i >= 0 {
		_, _ = fmt.Sscanf(msg[i:], "line %d", &line)
	}
	return line
}

func decodeTOML(path string, data []byte) (map[string]any, error) {
	raw := map[string]any{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, &DescriptorError{File: path, Line: perr.Position.Line, Msg: perr.Message}
		}
		return nil, &DescriptorError{File: path, Msg: err.Error()}
	}
	return raw, nil
}

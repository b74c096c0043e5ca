package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ManifestName is the manifest file looked up inside a plugin directory.
const ManifestName = "utilgen-plugin"

var manifestExts = []string{".yaml", ".yml", ".json"}

// resolve finds the plugin a reference names: a registered plugin first,
// then a manifest next to the descriptor or in node_modules.
func resolve(ref Ref, baseDir string) (Plugin, string, error) {
	if ref.Module == "" {
		return nil, "", errors.New("plugin reference has an empty module")
	}
	if factory, ok := lookup(ref.Module); ok {
		p, err := factory(ref.Options)
		if err != nil {
			return nil, "", fmt.Errorf("plugin %s: %w", ref.Module, err)
		}
		return p, "builtin", nil
	}

	var searched []string
	for _, path := range candidatePaths(ref.Module, baseDir) {
		searched = append(searched, path)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("plugin %s: %w", ref.Module, err)
		}
		if info.IsDir() {
			continue
		}
		p, err := loadManifest(path)
		if err != nil {
			return nil, "", err
		}
		return p, path, nil
	}
	return nil, "", &NotFoundError{Ref: ref.Module, Searched: searched}
}

func isRelative(module string) bool {
	return strings.HasPrefix(module, "./") || strings.HasPrefix(module, "../") || filepath.IsAbs(module)
}

// candidatePaths lists the manifest locations for module, most specific first.
func candidatePaths(module, baseDir string) []string {
	if isRelative(module) {
		p := module
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, filepath.FromSlash(module))
		}
		return withManifestNames(p, true)
	}

	var out []string
	dir, err := filepath.Abs(baseDir)
	if err != nil {
		dir = baseDir
	}
	for {
		p := filepath.Join(dir, "node_modules", filepath.FromSlash(module))
		out = append(out, withManifestNames(p, false)...)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return out
}

func withManifestNames(p string, self bool) []string {
	var out []string
	if self {
		out = append(out, p)
		for _, ext := range manifestExts {
			out = append(out, p+ext)
		}
	}
	for _, ext := range manifestExts {
		out = append(out, filepath.Join(p, ManifestName+ext))
	}
	return out
}

package plugin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yacobolo/utilgen/internal/engine"
	"github.com/yacobolo/utilgen/internal/theme"
)

// manifest is a declarative plugin. JSON manifests decode through the same
// YAML decoder.
type manifest struct {
	Name  string `yaml:"name"`
	Theme struct {
		Extend map[string]any `yaml:"extend"`
	} `yaml:"theme"`
	Utilities      map[string]string       `yaml:"utilities"`
	Components     map[string]string       `yaml:"components"`
	Base           map[string]string       `yaml:"base"`
	MatchUtilities map[string]matchUtility `yaml:"matchUtilities"`
	CSS            string                  `yaml:"css"`
}

// matchUtility declares a functional utility: "<root>-<key>" maps to the
// properties with the value found in Values or the Theme category.
type matchUtility struct {
	Properties []string          `yaml:"properties"`
	Values     map[string]string `yaml:"values"`
	Theme      string            `yaml:"theme"`
	Negatable  bool              `yaml:"negatable"`
}

type manifestPlugin struct {
	path string
	m    manifest
}

func loadManifest(path string) (*manifestPlugin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plugin manifest: %w", err)
	}
	var m manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing plugin manifest %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for root, mu := range m.MatchUtilities {
		if len(mu.Properties) == 0 {
			return nil, fmt.Errorf("plugin manifest %s: matchUtilities.%s: no properties", path, root)
		}
		if mu.Theme != "" && !theme.IsCategory(mu.Theme) {
			return nil, fmt.Errorf("plugin manifest %s: matchUtilities.%s: unknown theme category %q", path, root, mu.Theme)
		}
	}
	return &manifestPlugin{path: path, m: m}, nil
}

func (p *manifestPlugin) Name() string {
	return p.m.Name
}

func (p *manifestPlugin) Register(api *API) error {
	for _, category := range sortedKeys(p.m.Theme.Extend) {
		s, err := theme.FromRaw("theme.extend."+category, category, p.m.Theme.Extend[category])
		if err != nil {
			return err
		}
		if err := api.ExtendTheme(category, s); err != nil {
			return err
		}
	}

	api.AddUtilities(declMap(p.m.Utilities))
	api.AddComponents(declMap(p.m.Components))
	for _, sel := range sortedKeys(p.m.Base) {
		api.AddBase(sel, engine.ParseDecls(p.m.Base[sel]))
	}
	for _, root := range sortedKeys(p.m.MatchUtilities) {
		mu := p.m.MatchUtilities[root]
		api.AddFunctional(func(e *engine.Engine) engine.Functional {
			return engine.Functional{
				Root:      root,
				Negatable: mu.Negatable,
				Resolve: func(v engine.Value) ([]engine.Fragment, bool) {
					val, ok := mu.value(e, v)
					if !ok {
						return nil, false
					}
					decls := make([]engine.Decl, len(mu.Properties))
					for i, prop := range mu.Properties {
						decls[i] = engine.Decl{Prop: prop, Value: val}
					}
					return []engine.Fragment{{Decls: decls}}, true
				},
			}
		})
	}
	if p.m.CSS != "" {
		api.AddCSS(p.m.CSS)
	}
	return nil
}

func (mu matchUtility) value(e *engine.Engine, v engine.Value) (string, bool) {
	if v.Modifier != "" {
		return "", false
	}
	var val string
	switch {
	case v.Arbitrary:
		val = v.Raw
	case mu.Values != nil:
		key := v.Raw
		if v.IsDefault() {
			key = "DEFAULT"
		}
		var ok bool
		if val, ok = mu.Values[key]; !ok {
			return "", false
		}
	case mu.Theme != "":
		return e.ThemeValue(mu.Theme, v)
	default:
		return "", false
	}
	if v.Negative {
		val = engine.Negate(val)
	}
	return val, true
}

func declMap(m map[string]string) map[string][]engine.Decl {
	out := make(map[string][]engine.Decl, len(m))
	for class, decls := range m {
		out[class] = engine.ParseDecls(decls)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	sort.Strings(keys)
	return keys
}

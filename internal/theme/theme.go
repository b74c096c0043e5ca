// Package theme holds the design tokens utilities resolve against.
package theme

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Token is a single theme value. LineHeight is only set for fontSize tuples.
type Token struct {
	Value      string `json:"value"`
	LineHeight string `json:"lineHeight,omitempty"`
}

// Scale maps a token key (e.g. "red-500", "4", "DEFAULT") to its value
type Scale map[string]Token

// Keys returns the scale keys in display order: DEFAULT, numeric ascending, then names.
func (s Scale) Keys() []string {
	keys := slices.Collect(maps.Keys(s))
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
	return keys
}

func lessKey(a, b string) bool {
	if a == "DEFAULT" || b == "DEFAULT" {
		return a == "DEFAULT" && b != "DEFAULT"
	}
	na, aok := numericKey(a)
	nb, bok := numericKey(b)
	switch {
	case aok && bok:
		if na != nb {
			return na < nb
		}
		return a < b
	case aok:
		return true
	case bok:
		return false
	}
	return a < b
}

// numericKey parses "4", "0.5" and "1/2" style keys
func numericKey(k string) (float64, bool) {
	if num, den, ok := strings.Cut(k, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	f, err := strconv.ParseFloat(k, 64)
	return f, err == nil
}

// categories lists every theme key a descriptor may customise.
var categories = []string{
	"screens", "colors", "spacing",
	"width", "height", "minWidth", "minHeight", "maxWidth", "maxHeight",
	"inset", "margin", "padding", "gap",
	"fontSize", "fontWeight", "fontFamily", "lineHeight", "letterSpacing",
	"borderRadius", "borderWidth", "opacity", "zIndex", "boxShadow",
	"transitionDuration", "textColor", "backgroundColor", "borderColor",
}

// parents maps a category to the category it inherits keys from.
var parents = map[string]string{
	"width":           "spacing",
	"height":          "spacing",
	"minWidth":        "spacing",
	"minHeight":       "spacing",
	"maxWidth":        "spacing",
	"maxHeight":       "spacing",
	"inset":           "spacing",
	"margin":          "spacing",
	"padding":         "spacing",
	"gap":             "spacing",
	"textColor":       "colors",
	"backgroundColor": "colors",
	"borderColor":     "colors",
}

// IsCategory reports whether name is a recognised theme category.
func IsCategory(name string) bool {
	return slices.Contains(categories, name)
}

// Categories returns the recognised categories in canonical order.
func Categories() []string {
	return slices.Clone(categories)
}

// Parent returns the category a category falls back to, if any.
func Parent(category string) (string, bool) {
	p, ok := parents[category]
	return p, ok
}

// Theme is a mutable set of scales. Build one with Default and customise it
// with Apply before handing it to the engine.
type Theme struct {
	scales map[string]Scale
}

var (
	defaultOnce  sync.Once
	defaultTheme *Theme
)

// Default returns a fresh copy of the built-in theme.
func Default() *Theme {
	defaultOnce.Do(func() {
		t, err := parseTheme(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("theme: embedded default theme: %v", err))
		}
		defaultTheme = t
	})
	return defaultTheme.Clone()
}

func parseTheme(data []byte) (*Theme, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse theme: %w", err)
	}
	t := &Theme{scales: make(map[string]Scale, len(categories))}
	for _, c := range categories {
		t.scales[c] = Scale{}
	}
	for name, v := range raw {
		scale, err := FromRaw(name, name, v)
		if err != nil {
			return nil, err
		}
		t.scales[name] = scale
	}
	return t, nil
}

// Clone returns a deep copy.
func (t *Theme) Clone() *Theme {
	c := &Theme{scales: make(map[string]Scale, len(t.scales))}
	for name, s := range t.scales {
		c.scales[name] = maps.Clone(s)
	}
	return c
}

// Extend merges s into category, overwriting existing keys.
func (t *Theme) Extend(category string, s Scale) {
	if t.scales[category] == nil {
		t.scales[category] = Scale{}
	}
	maps.Copy(t.scales[category], s)
}

// Replace swaps the whole category for s.
func (t *Theme) Replace(category string, s Scale) {
	t.scales[category] = maps.Clone(s)
}

// Apply replaces every category in override, then merges every category in extend.
func (t *Theme) Apply(override, extend map[string]Scale) {
	for _, name := range sortedNames(override) {
		t.Replace(name, override[name])
	}
	for _, name := range sortedNames(extend) {
		t.Extend(name, extend[name])
	}
}

func sortedNames(m map[string]Scale) []string {
	names := slices.Collect(maps.Keys(m))
	sort.Strings(names)
	return names
}

// Lookup finds key in category, then in its parent category.
func (t *Theme) Lookup(category, key string) (Token, bool) {
	if tok, ok := t.scales[category][key]; ok {
		return tok, true
	}
	if p, ok := parents[category]; ok {
		tok, ok := t.scales[p][key]
		return tok, ok
	}
	return Token{}, false
}

// Scale returns the effective values of category including inherited keys.
func (t *Theme) Scale(category string) Scale {
	out := Scale{}
	if p, ok := parents[category]; ok {
		maps.Copy(out, t.scales[p])
	}
	maps.Copy(out, t.scales[category])
	return out
}

// Screen is a named min-width breakpoint.
type Screen struct {
	Name     string
	MinWidth string
}

// Screens returns the breakpoints ordered by min-width, smallest first.
func (t *Theme) Screens() []Screen {
	s := t.scales["screens"]
	out := make([]Screen, 0, len(s))
	for name, tok := range s {
		out = append(out, Screen{Name: name, MinWidth: tok.Value})
	}
	sort.Slice(out, func(i, j int) bool {
		wi, wj := toPixels(out[i].MinWidth), toPixels(out[j].MinWidth)
		if wi != wj {
			return wi < wj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// toPixels converts px/rem/em lengths for ordering; unknown units sort last.
func toPixels(v string) float64 {
	v = strings.TrimSpace(v)
	mult := 1.0
	switch {
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "rem"):
		v, mult = strings.TrimSuffix(v, "rem"), 16
	case strings.HasSuffix(v, "em"):
		v, mult = strings.TrimSuffix(v, "em"), 16
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 1 << 30
	}
	return f * mult
}

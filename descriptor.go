package utilgen

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/yacobolo/utilgen/internal/engine"
	"github.com/yacobolo/utilgen/internal/jsconfig"
	"github.com/yacobolo/utilgen/internal/plugin"
	"github.com/yacobolo/utilgen/internal/theme"
)

// Mode is the compilation strategy
type Mode string

// ModeJIT generates only the rules referenced by scanned content.
const ModeJIT Mode = "jit"

// Dark mode strategies
const (
	DarkModeMedia = "media"
	DarkModeClass = "class"
)

// DefaultDarkSelector is the ancestor selector of the class strategy.
const DefaultDarkSelector = ".dark"

// DarkMode selects how dark variants are activated.
type DarkMode struct {
	Strategy string `json:"strategy"`
	Selector string `json:"selector,omitempty"` // class strategy only
}

// Content lists the globs scanned for class candidates. Entries starting
// with "!" exclude matches.
type Content struct {
	Patterns []string `json:"patterns"`
}

// Includes returns the patterns that add files.
func (c Content) Includes() []string {
	var out []string
	for _, p := range c.Patterns {
		if !strings.HasPrefix(p, "!") {
			out = append(out, p)
		}
	}
	return out
}

// Excludes returns the "!" patterns without the marker.
func (c Content) Excludes() []string {
	var out []string
	for _, p := range c.Patterns {
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			out = append(out, rest)
		}
	}
	return out
}

// ThemeSpec holds the theme customisation. Override replaces whole
// categories; Extend merges into them.
type ThemeSpec struct {
	Override map[string]theme.Scale `json:"override,omitempty"`
	Extend   map[string]theme.Scale `json:"extend,omitempty"`
}

// Important marks utility declarations !important, or scopes them under
// Selector when one is set.
type Important struct {
	Enabled  bool   `json:"enabled"`
	Selector string `json:"selector,omitempty"`
}

// PluginRef is a plugins entry.
type PluginRef = plugin.Ref

// Descriptor is the typed form of a configuration file.
type Descriptor struct {
	Path      string      `json:"path"`
	Mode      Mode        `json:"mode"`
	DarkMode  DarkMode    `json:"darkMode"`
	Content   Content     `json:"content"`
	Theme     ThemeSpec   `json:"theme"`
	Safelist  []string    `json:"safelist"`
	Blocklist []string    `json:"blocklist,omitempty"`
	Plugins   []PluginRef `json:"plugins"`
	Prefix    string      `json:"prefix,omitempty"`
	Important Important   `json:"important"`
	Separator string      `json:"separator"`
	Preflight bool        `json:"preflight"`
}

// Dir is the directory content globs and plugin paths are relative to.
func (d *Descriptor) Dir() string {
	return filepath.Dir(d.Path)
}

// EngineOptions maps the descriptor onto engine options.
func (d *Descriptor) EngineOptions(t *theme.Theme) engine.Options {
	opts := engine.Options{
		Theme:     t,
		DarkMode:  engine.DarkMode{Strategy: d.DarkMode.Strategy, Selector: d.DarkMode.Selector},
		Separator: d.Separator,
		Prefix:    d.Prefix,
		Blocklist: d.Blocklist,
		Preflight: d.Preflight,
	}
	if d.Important.Selector != "" {
		opts.ImportantSelector = d.Important.Selector
	} else {
		opts.Important = d.Important.Enabled
	}
	return opts
}

// topLevelKeys are the keys a descriptor may use. "purge" is the older
// name of "content".
var topLevelKeys = []string{
	"blocklist", "content", "corePlugins", "darkMode", "important", "mode",
	"plugins", "prefix", "purge", "safelist", "separator", "theme",
}

// DescriptorFromMap converts a decoded configuration object. Every file
// format goes through it.
func DescriptorFromMap(path string, raw map[string]any) (*Descriptor, error) {
	d := &Descriptor{
		Path:      path,
		Mode:      ModeJIT,
		DarkMode:  DarkMode{Strategy: DarkModeMedia},
		Separator: ":",
		Preflight: true,
	}
	fail := func(field, format string, args ...any) error {
		return &DescriptorError{File: path, Field: field, Msg: fmt.Sprintf(format, args...)}
	}

	keys := slices.Collect(maps.Keys(raw))
	sort.Strings(keys)
	for _, key := range keys {
		if !slices.Contains(topLevelKeys, key) {
			return nil, fail(key, "unknown key (expected one of %s)", strings.Join(topLevelKeys, ", "))
		}
	}
	if _, ok := raw["content"]; ok {
		if _, dup := raw["purge"]; dup {
			return nil, fail("purge", "content and purge are the same setting; use content")
		}
	}

	for _, key := range keys {
		v := raw[key]
		var err error
		switch key {
		case "mode":
			err = d.setMode(v, fail)
		case "darkMode":
			err = d.setDarkMode(v, fail)
		case "content", "purge":
			err = d.setContent(key, v, fail)
		case "theme":
			err = d.setTheme(v, fail)
		case "safelist":
			d.Safelist, err = classList(key, v, fail)
		case "blocklist":
			d.Blocklist, err = classList(key, v, fail)
		case "plugins":
			err = d.setPlugins(v, fail)
		case "prefix":
			d.Prefix, err = stringField(key, v, fail)
		case "separator":
			d.Separator, err = stringField(key, v, fail)
		case "important":
			err = d.setImportant(v, fail)
		case "corePlugins":
			err = d.setCorePlugins(v, fail)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

type failFunc func(field, format string, args ...any) error

func (d *Descriptor) setMode(v any, fail failFunc) error {
	s, ok := v.(string)
	if !ok {
		return fail("mode", "expected a string, got %s", describe(v))
	}
	d.Mode = Mode(s)
	return nil
}

// setDarkMode accepts "media", "class" and ["class", ".selector"].
func (d *Descriptor) setDarkMode(v any, fail failFunc) error {
	switch t := v.(type) {
	case string:
		d.DarkMode = DarkMode{Strategy: t}
	case []any:
		if len(t) == 0 || len(t) > 2 {
			return fail("darkMode", "expected [strategy, selector], got %d elements", len(t))
		}
		strategy, ok := t[0].(string)
		if !ok {
			return fail("darkMode[0]", "expected a string, got %s", describe(t[0]))
		}
		d.DarkMode = DarkMode{Strategy: strategy}
		if len(t) == 2 {
			sel, ok := t[1].(string)
			if !ok {
				return fail("darkMode[1]", "expected a string, got %s", describe(t[1]))
			}
			d.DarkMode.Selector = sel
		}
	default:
		return fail("darkMode", "expected a string or an array, got %s", describe(v))
	}
	if d.DarkMode.Strategy == DarkModeClass && d.DarkMode.Selector == "" {
		d.DarkMode.Selector = DefaultDarkSelector
	}
	return nil
}

// setContent accepts an array of globs or an object with a files array.
func (d *Descriptor) setContent(key string, v any, fail failFunc) error {
	list := v
	field := key
	if m, ok := asObject(v); ok {
		for k := range m {
			if k != "files" {
				return fail(key+"."+k, "unknown key (expected files)")
			}
		}
		list, field = m["files"], key+".files"
		if list == nil {
			return fail(field, "missing")
		}
	}
	items, ok := list.([]any)
	if !ok {
		return fail(field, "expected an array of glob patterns, got %s", describe(list))
	}
	d.Content.Patterns = make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return fail(fmt.Sprintf("%s[%d]", field, i), "expected a glob string, got %s", describe(item))
		}
		d.Content.Patterns = append(d.Content.Patterns, s)
	}
	return nil
}

func (d *Descriptor) setTheme(v any, fail failFunc) error {
	m, ok := asObject(v)
	if !ok {
		return fail("theme", "expected an object, got %s", describe(v))
	}
	for _, key := range sortedKeys(m) {
		if key == "extend" {
			ext, ok := asObject(m[key])
			if !ok {
				return fail("theme.extend", "expected an object, got %s", describe(m[key]))
			}
			scales, err := themeScales("theme.extend", ext, fail)
			if err != nil {
				return err
			}
			d.Theme.Extend = scales
			continue
		}
		scales, err := themeScales("theme", map[string]any{key: m[key]}, fail)
		if err != nil {
			return err
		}
		if d.Theme.Override == nil {
			d.Theme.Override = make(map[string]theme.Scale)
		}
		maps.Copy(d.Theme.Override, scales)
	}
	return nil
}

func themeScales(prefix string, m map[string]any, fail failFunc) (map[string]theme.Scale, error) {
	out := make(map[string]theme.Scale, len(m))
	for _, category := range sortedKeys(m) {
		field := prefix + "." + category
		if !theme.IsCategory(category) {
			return nil, fail(field, "unknown theme category (expected one of %s)", strings.Join(theme.Categories(), ", "))
		}
		s, err := theme.FromRaw(field, category, m[category])
		if err != nil {
			var ve *theme.ValueError
			if errors.As(err, &ve) {
				return nil, fail(ve.Path, "%s", ve.Msg)
			}
			return nil, fail(field, "%v", err)
		}
		out[category] = s
	}
	return out, nil
}

func classList(field string, v any, fail failFunc) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fail(field, "expected an array of class names, got %s", describe(v))
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		elem := fmt.Sprintf("%s[%d]", field, i)
		switch t := item.(type) {
		case string:
			out = append(out, t)
		case jsconfig.Regex:
			return nil, fail(elem, "regular expressions are not supported, list class names explicitly (got /%s/%s)", t.Pattern, t.Flags)
		case map[string]any:
			return nil, fail(elem, "pattern objects are not supported, list class names explicitly")
		default:
			return nil, fail(elem, "expected a class name, got %s", describe(item))
		}
	}
	return out, nil
}

// setPlugins accepts module strings, require() values, and objects of the
// form {module, options}.
func (d *Descriptor) setPlugins(v any, fail failFunc) error {
	items, ok := v.([]any)
	if !ok {
		return fail("plugins", "expected an array, got %s", describe(v))
	}
	for i, item := range items {
		field := fmt.Sprintf("plugins[%d]", i)
		ref, err := pluginRef(field, item, fail)
		if err != nil {
			return err
		}
		d.Plugins = append(d.Plugins, ref)
	}
	return nil
}

func pluginRef(field string, v any, fail failFunc) (PluginRef, error) {
	switch t := v.(type) {
	case string:
		return PluginRef{Module: t}, nil
	case jsconfig.Module:
		ref := PluginRef{Module: t.Path}
		if !t.Called || len(t.Args) == 0 {
			return ref, nil
		}
		if len(t.Args) > 1 {
			return PluginRef{}, fail(field, "plugin factories take one options object, got %d arguments", len(t.Args))
		}
		opts, ok := asObject(t.Args[0])
		if !ok {
			return PluginRef{}, fail(field, "plugin options must be an object, got %s", describe(t.Args[0]))
		}
		ref.Options = opts
		return ref, nil
	}
	m, ok := asObject(v)
	if !ok {
		return PluginRef{}, fail(field, "expected a module reference, got %s", describe(v))
	}
	var ref PluginRef
	for _, k := range sortedKeys(m) {
		switch k {
		case "module":
			s, ok := m[k].(string)
			if !ok {
				return PluginRef{}, fail(field+".module", "expected a string, got %s", describe(m[k]))
			}
			ref.Module = s
		case "options":
			opts, ok := asObject(m[k])
			if !ok {
				return PluginRef{}, fail(field+".options", "expected an object, got %s", describe(m[k]))
			}
			ref.Options = opts
		default:
			return PluginRef{}, fail(field+"."+k, "unknown key (expected module or options)")
		}
	}
	return ref, nil
}

func stringField(field string, v any, fail failFunc) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fail(field, "expected a string, got %s", describe(v))
	}
	return s, nil
}

// setImportant accepts a boolean or a selector string.
func (d *Descriptor) setImportant(v any, fail failFunc) error {
	switch t := v.(type) {
	case bool:
		d.Important = Important{Enabled: t}
	case string:
		if strings.TrimSpace(t) == "" {
			return fail("important", "selector must not be empty")
		}
		d.Important = Important{Enabled: true, Selector: t}
	default:
		return fail("important", "expected a boolean or a selector, got %s", describe(v))
	}
	return nil
}

// setCorePlugins supports {preflight: bool}.
func (d *Descriptor) setCorePlugins(v any, fail failFunc) error {
	m, ok := asObject(v)
	if !ok {
		return fail("corePlugins", "expected an object, got %s", describe(v))
	}
	for _, k := range sortedKeys(m) {
		if k != "preflight" {
			return fail("corePlugins."+k, "unknown core plugin (only preflight can be toggled)")
		}
		b, ok := m[k].(bool)
		if !ok {
			return fail("corePlugins.preflight", "expected a boolean, got %s", describe(m[k]))
		}
		d.Preflight = b
	}
	return nil
}

// Validate checks every descriptor invariant.
func (d *Descriptor) Validate() error {
	fail := func(field, format string, args ...any) error {
		return &DescriptorError{File: d.Path, Field: field, Msg: fmt.Sprintf(format, args...)}
	}

	if d.Mode != ModeJIT {
		return fail("mode", "unsupported mode %q (expected %q)", d.Mode, ModeJIT)
	}
	switch d.DarkMode.Strategy {
	case DarkModeMedia:
		if d.DarkMode.Selector != "" {
			return fail("darkMode", "a selector is only allowed with the class strategy")
		}
	case DarkModeClass:
		if strings.TrimSpace(d.DarkMode.Selector) == "" {
			return fail("darkMode", "class strategy needs a selector")
		}
	default:
		return fail("darkMode", "unknown strategy %q (expected %q or %q)", d.DarkMode.Strategy, DarkModeMedia, DarkModeClass)
	}

	for i, p := range d.Content.Patterns {
		field := fmt.Sprintf("content[%d]", i)
		glob := strings.TrimPrefix(p, "!")
		if strings.TrimSpace(glob) == "" {
			return fail(field, "empty glob pattern")
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(glob)) {
			return fail(field, "invalid glob pattern %q", p)
		}
	}

	for category := range d.Theme.Override {
		if !theme.IsCategory(category) {
			return fail("theme."+category, "unknown theme category")
		}
	}
	for category := range d.Theme.Extend {
		if !theme.IsCategory(category) {
			return fail("theme.extend."+category, "unknown theme category")
		}
	}

	if err := validateClasses("safelist", d.Safelist, fail); err != nil {
		return err
	}
	if err := validateClasses("blocklist", d.Blocklist, fail); err != nil {
		return err
	}

	for i, p := range d.Plugins {
		if strings.TrimSpace(p.Module) == "" {
			return fail(fmt.Sprintf("plugins[%d]", i), "empty module reference")
		}
	}

	if d.Separator == "" || strings.ContainsAny(d.Separator, " \t\n\"'`") {
		return fail("separator", "invalid separator %q", d.Separator)
	}
	if strings.ContainsAny(d.Prefix, " \t\n\"'`") {
		return fail("prefix", "invalid prefix %q", d.Prefix)
	}
	return nil
}

func validateClasses(field string, classes []string, fail failFunc) error {
	for i, c := range classes {
		elem := fmt.Sprintf("%s[%d]", field, i)
		if c == "" {
			return fail(elem, "empty class name")
		}
		if strings.ContainsAny(c, " \t\r\n\"'`") {
			return fail(elem, "invalid class name %q: whitespace and quotes are not allowed", c)
		}
	}
	return nil
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	keys := slices.Collect(maps.Keys(m))
	sort.Strings(keys)
	return keys
}

// describe names the kind of a decoded value for error messages
func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", t)
	case bool:
		return "a boolean"
	case int, int64, uint64, float64:
		return "a number"
	case []any:
		return "an array"
	case map[string]any, map[any]any:
		return "an object"
	case jsconfig.Regex:
		return "a regular expression"
	case jsconfig.Module:
		return fmt.Sprintf("module %q", t.Path)
	}
	return fmt.Sprintf("%T", v)
}

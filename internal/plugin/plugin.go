// Package plugin resolves descriptor plugin references and lets plugins add
// theme values, utilities, components and base styles.
package plugin

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/yacobolo/utilgen/internal/engine"
	"github.com/yacobolo/utilgen/internal/stylesheet"
	"github.com/yacobolo/utilgen/internal/theme"
)

// Plugin contributes to a build.
type Plugin interface {
	Name() string
	Register(api *API) error
}

// Factory creates a plugin from the options given in the descriptor.
type Factory func(options map[string]any) (Plugin, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a plugin available under name. It panics if name is
// registered twice or factory is nil.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("plugin: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("plugin: Register called twice for " + name)
	}
	registry[name] = factory
}

// Registered returns the sorted names of the registered plugins.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := slices.Collect(maps.Keys(registry))
	sort.Strings(names)
	return names
}

func lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Ref is a plugin entry of the descriptor.
type Ref struct {
	Module  string         `json:"module"`
	Options map[string]any `json:"options,omitempty"`
}

// NotFoundError reports a reference that resolved to nothing.
type NotFoundError struct {
	Ref      string
	Searched []string
}

func (e *NotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("plugin not found: %q", e.Ref)
	}
	return fmt.Sprintf("plugin not found: %q (searched: %s)", e.Ref, strings.Join(e.Searched, ", "))
}

// API is handed to Plugin.Register. Engine changes are recorded and
// replayed once the theme is final.
type API struct {
	name    string
	options map[string]any
	theme   *theme.Theme
	extend  map[string]theme.Scale
	ops     []func(*engine.Engine) error
}

// Options returns the options the descriptor passed to the plugin.
func (a *API) Options() map[string]any {
	return a.options
}

// Theme looks up a value of the theme as seen by the plugin.
func (a *API) Theme(category, key string) (string, bool) {
	tok, ok := a.theme.Lookup(category, key)
	return tok.Value, ok
}

// ExtendTheme merges values into a theme category.
func (a *API) ExtendTheme(category string, s theme.Scale) error {
	if !theme.IsCategory(category) {
		return fmt.Errorf("unknown theme category %q", category)
	}
	if a.extend[category] == nil {
		a.extend[category] = theme.Scale{}
	}
	maps.Copy(a.extend[category], s)
	a.theme.Extend(category, s)
	return nil
}

// AddUtilities registers static utility classes.
func (a *API) AddUtilities(classes map[string][]engine.Decl) {
	a.addStatics(engine.LayerUtilities, classes)
}

// AddComponents registers component classes.
func (a *API) AddComponents(classes map[string][]engine.Decl) {
	a.addStatics(engine.LayerComponents, classes)
}

func (a *API) addStatics(layer engine.Layer, classes map[string][]engine.Decl) {
	names := slices.Collect(maps.Keys(classes))
	sort.Strings(names)
	a.ops = append(a.ops, func(e *engine.Engine) error {
		for _, name := range names {
			e.AddStatic(layer, name, engine.Fragment{Decls: classes[name]})
		}
		return nil
	})
}

// AddFunctional registers a value-taking utility. build receives the
// engine so the resolver can read the final theme.
func (a *API) AddFunctional(build func(e *engine.Engine) engine.Functional) {
	a.ops = append(a.ops, func(e *engine.Engine) error {
		e.AddFunctional(build(e))
		return nil
	})
}

// AddBase adds a rule to the base layer.
func (a *API) AddBase(selector string, decls []engine.Decl) {
	a.ops = append(a.ops, func(e *engine.Engine) error {
		e.AddBase(selector, decls)
		return nil
	})
}

// AddCSS registers class rules written as CSS. Rules outside @layer are
// utilities.
func (a *API) AddCSS(css string) {
	file := a.name + ".css"
	a.ops = append(a.ops, func(e *engine.Engine) error {
		return stylesheet.Register(file, css, e, engine.LayerUtilities)
	})
}

// Loaded describes a resolved plugin.
type Loaded struct {
	Ref    string `json:"ref"`
	Name   string `json:"name"`
	Source string `json:"source"` // "builtin" or the manifest path
}

// Set is the ordered result of registering every plugin of a descriptor.
type Set struct {
	loaded []Loaded
	apis   []*API
}

// Plugins returns what was loaded, in descriptor order.
func (s *Set) Plugins() []Loaded {
	return slices.Clone(s.loaded)
}

// ExtendTheme applies every plugin's theme extensions to t in order.
func (s *Set) ExtendTheme(t *theme.Theme) {
	for _, a := range s.apis {
		t.Apply(nil, a.extend)
	}
}

// Apply replays the recorded engine changes.
func (s *Set) Apply(e *engine.Engine) error {
	for _, a := range s.apis {
		for _, op := range a.ops {
			if err := op(e); err != nil {
				return fmt.Errorf("plugin %s: %w", a.name, err)
			}
		}
	}
	return nil
}

// Load resolves refs relative to baseDir and registers each plugin. Plugins
// see the default theme plus the extensions of the plugins before them.
func Load(refs []Ref, baseDir string) (*Set, error) {
	set := &Set{}
	view := theme.Default()
	for _, ref := range refs {
		p, source, err := resolve(ref, baseDir)
		if err != nil {
			return nil, err
		}
		api := &API{
			name:    p.Name(),
			options: ref.Options,
			theme:   view,
			extend:  make(map[string]theme.Scale),
		}
		if err := p.Register(api); err != nil {
			return nil, fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		set.apis = append(set.apis, api)
		set.loaded = append(set.loaded, Loaded{Ref: ref.Module, Name: p.Name(), Source: source})
	}
	return set, nil
}

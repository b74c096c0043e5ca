// Package engine generates utility CSS on demand from class candidates.
package engine

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/yacobolo/utilgen/internal/diag"
	"github.com/yacobolo/utilgen/internal/theme"
)

// ErrUnknownClass is returned when a class does not resolve to any rule.
var ErrUnknownClass = errors.New("unknown utility class")

// Decl is a single CSS declaration
type Decl struct {
	Prop  string `json:"property"`
	Value string `json:"value"`
}

func (d Decl) String() string {
	return d.Prop + ": " + d.Value
}

// Layer is the cascade layer a rule is emitted into
type Layer string

// Layers in output order
const (
	LayerBase       Layer = "base"
	LayerComponents Layer = "components"
	LayerUtilities  Layer = "utilities"
)

// ParseLayer validates a layer name.
func ParseLayer(s string) (Layer, bool) {
	switch l := Layer(s); l {
	case LayerBase, LayerComponents, LayerUtilities:
		return l, true
	}
	return "", false
}

// Fragment is one rule produced by a utility. In Template "&" stands for the
// class selector; an empty Template means "&".
type Fragment struct {
	Template string
	AtRules  []string
	Decls    []Decl
}

func (f Fragment) template() string {
	if f.Template == "" {
		return "&"
	}
	return f.Template
}

func (f Fragment) sameContext(o Fragment) bool {
	return f.template() == o.template() && slices.Equal(f.AtRules, o.AtRules)
}

// Rule is a fully resolved CSS rule
type Rule struct {
	Candidate string   `json:"candidate,omitempty"`
	Selector  string   `json:"selector,omitempty"`
	AtRules   []string `json:"atRules,omitempty"`
	Decls     []Decl   `json:"declarations,omitempty"`
	Layer     Layer    `json:"layer"`
	Raw       string   `json:"raw,omitempty"` // verbatim CSS, base layer only

	key sortKey
}

// sortKey orders rules: responsive rank, variant mask, utility order, class, fragment.
type sortKey struct {
	rank      int
	mask      uint64
	order     int
	candidate string
	fragment  int
}

func (k sortKey) less(o sortKey) bool {
	if k.rank != o.rank {
		return k.rank < o.rank
	}
	if k.mask != o.mask {
		return k.mask < o.mask
	}
	if k.order != o.order {
		return k.order < o.order
	}
	if k.candidate != o.candidate {
		return k.candidate < o.candidate
	}
	return k.fragment < o.fragment
}

// DarkMode selects how the dark variant is activated
type DarkMode struct {
	Strategy string // "media" or "class"
	Selector string // ancestor selector for the class strategy
}

// Options configures an Engine
type Options struct {
	Theme             *theme.Theme // nil uses theme.Default()
	DarkMode          DarkMode
	Separator         string // variant separator, ":" when empty
	Prefix            string // class prefix, e.g. "tw-"
	Important         bool   // mark every utility declaration !important
	ImportantSelector string // scope every utility under this selector instead
	Blocklist         []string
	Preflight         bool
}

// Functional is a utility keyed by a root ("p", "bg", "text") that takes a value.
type Functional struct {
	Root      string
	Negatable bool
	Layer     Layer // utilities when empty
	Resolve   func(v Value) ([]Fragment, bool)

	order int
}

type static struct {
	name  string
	frags []Fragment
	order int
	layer Layer
}

// CustomRule is a class rule declared in CSS or by a plugin. Template
// locates the class inside its selector ("&:hover", ".group &").
type CustomRule struct {
	Class    string
	Template string
	AtRules  []string
	Decls    []Decl
}

// Engine resolves candidates into rules. It is not safe for concurrent use.
type Engine struct {
	opts        Options
	theme       *theme.Theme
	screens     []theme.Screen
	statics     map[string]*static
	functionals map[string][]*Functional
	variants    map[string]variant
	base        []Rule
	blocked     map[string]bool
	seq         int
	cache       map[string][]Rule
	diags       diag.List
}

// New creates an engine with the core utilities and variants registered.
func New(opts Options) *Engine {
	if opts.Theme == nil {
		opts.Theme = theme.Default()
	}
	if opts.Separator == "" {
		opts.Separator = ":"
	}
	if opts.DarkMode.Strategy == "" {
		opts.DarkMode.Strategy = "media"
	}
	if opts.DarkMode.Strategy == "class" && opts.DarkMode.Selector == "" {
		opts.DarkMode.Selector = ".dark"
	}
	e := &Engine{
		opts:        opts,
		theme:       opts.Theme,
		screens:     opts.Theme.Screens(),
		statics:     make(map[string]*static),
		functionals: make(map[string][]*Functional),
		blocked:     make(map[string]bool, len(opts.Blocklist)),
		cache:       make(map[string][]Rule),
	}
	for _, b := range opts.Blocklist {
		e.blocked[b] = true
	}
	e.registerVariants()
	if opts.Preflight {
		e.registerPreflight()
	}
	e.registerCore()
	return e
}

// Theme returns the theme utilities resolve against.
func (e *Engine) Theme() *theme.Theme {
	return e.theme
}

// Diagnostics returns findings collected while registering custom rules.
func (e *Engine) Diagnostics() diag.List {
	return e.diags
}

// AddStatic registers a class with fixed output. Registering an existing
// name adds fragments to it.
func (e *Engine) AddStatic(layer Layer, name string, frags ...Fragment) {
	if layer == "" {
		layer = LayerUtilities
	}
	clear(e.cache)
	if s, ok := e.statics[name]; ok {
		s.frags = e.mergeFragments(name, s.frags, frags)
		return
	}
	e.seq++
	e.statics[name] = &static{name: name, frags: slices.Clone(frags), order: e.seq, layer: layer}
}

// mergeFragments appends frags to existing, merging declarations of
// fragments with the same selector context.
func (e *Engine) mergeFragments(name string, existing, frags []Fragment) []Fragment {
	for _, f := range frags {
		i := slices.IndexFunc(existing, f.sameContext)
		if i < 0 {
			existing = append(existing, f)
			continue
		}
		e.diags = append(e.diags, diag.Warning(diag.CodeDuplicateClass, name,
			"duplicate class %q, declarations merged", name))
		existing[i].Decls = mergeDecls(existing[i].Decls, f.Decls)
	}
	return existing
}

// mergeDecls overrides properties already present and appends new ones.
func mergeDecls(base, over []Decl) []Decl {
	out := slices.Clone(base)
	for _, d := range over {
		if i := slices.IndexFunc(out, func(x Decl) bool { return x.Prop == d.Prop }); i >= 0 {
			out[i] = d
			continue
		}
		out = append(out, d)
	}
	return out
}

// AddFunctional registers a value-taking utility. Several functionals may
// share a root; they are tried in registration order.
func (e *Engine) AddFunctional(f Functional) {
	if f.Layer == "" {
		f.Layer = LayerUtilities
	}
	clear(e.cache)
	e.seq++
	f.order = e.seq
	e.functionals[f.Root] = append(e.functionals[f.Root], &f)
}

// AddCustomRules registers class rules declared in CSS or by plugins.
func (e *Engine) AddCustomRules(layer Layer, rules []CustomRule) {
	for _, r := range rules {
		e.AddStatic(layer, r.Class, Fragment{Template: r.Template, AtRules: r.AtRules, Decls: r.Decls})
	}
}

// AddBase adds a structured rule to the base layer.
func (e *Engine) AddBase(selector string, decls []Decl) {
	e.base = append(e.base, Rule{Selector: selector, Decls: decls, Layer: LayerBase})
}

// AddBaseCSS adds verbatim CSS to the base layer.
func (e *Engine) AddBaseCSS(css string) {
	if css = strings.TrimSpace(css); css != "" {
		e.base = append(e.base, Rule{Raw: css, Layer: LayerBase})
	}
}

// Known reports whether raw resolves to at least one rule.
func (e *Engine) Known(raw string) bool {
	return len(e.Resolve(raw)) > 0
}

// Resolve returns the rules a candidate produces, or nil.
func (e *Engine) Resolve(raw string) []Rule {
	if rules, ok := e.cache[raw]; ok {
		return rules
	}
	rules := e.resolve(raw)
	e.cache[raw] = rules
	return rules
}

// Explain resolves a single class for display.
func (e *Engine) Explain(raw string) ([]Rule, error) {
	if e.blocked[raw] {
		return nil, fmt.Errorf("%q is blocklisted: %w", raw, ErrUnknownClass)
	}
	rules := e.Resolve(raw)
	if len(rules) == 0 {
		return nil, fmt.Errorf("%q: %w", raw, ErrUnknownClass)
	}
	return rules, nil
}

// ApplyDecls returns the declarations of the named classes for @apply.
// Classes with variants or nested output cannot be applied.
func (e *Engine) ApplyDecls(names []string) ([]Decl, error) {
	var out []Decl
	for _, name := range names {
		c, ok := ParseCandidate(name, e.opts.Separator, e.opts.Prefix)
		if !ok {
			return nil, fmt.Errorf("@apply %q: %w", name, ErrUnknownClass)
		}
		if len(c.Variants) > 0 {
			return nil, fmt.Errorf("@apply %q: variants cannot be applied", name)
		}
		frags, _, _, ok := e.resolveUtility(c)
		if !ok {
			return nil, fmt.Errorf("@apply %q: %w", name, ErrUnknownClass)
		}
		for _, f := range frags {
			if f.template() != "&" || len(f.AtRules) > 0 {
				return nil, fmt.Errorf("@apply %q: class produces nested rules", name)
			}
			out = mergeDecls(out, important(f.Decls, c.Important))
		}
	}
	return out, nil
}

func (e *Engine) resolve(raw string) []Rule {
	c, ok := ParseCandidate(raw, e.opts.Separator, e.opts.Prefix)
	if !ok {
		return nil
	}
	frags, order, layer, ok := e.resolveUtility(c)
	if !ok {
		return nil
	}

	st := selectorState{template: "&"}
	for i := len(c.Variants) - 1; i >= 0; i-- {
		if !e.applyVariant(c.Variants[i], &st) {
			return nil
		}
	}

	self := "." + EscapeClass(raw) + st.pseudo + st.element
	imp := c.Important || (e.opts.Important && layer == LayerUtilities)
	rules := make([]Rule, 0, len(frags))
	for i, f := range frags {
		sel := strings.Replace(st.template, "&", f.template(), 1)
		sel = strings.Replace(sel, "&", self, 1)
		if e.opts.ImportantSelector != "" && layer == LayerUtilities {
			sel = e.opts.ImportantSelector + " " + sel
		}
		rules = append(rules, Rule{
			Candidate: raw,
			Selector:  sel,
			AtRules:   append(slices.Clone(st.atRules), f.AtRules...),
			Decls:     important(f.Decls, imp),
			Layer:     layer,
			key:       sortKey{rank: st.rank, mask: st.mask, order: order, candidate: raw, fragment: i},
		})
	}
	return rules
}

func important(decls []Decl, on bool) []Decl {
	if !on {
		return slices.Clone(decls)
	}
	out := make([]Decl, len(decls))
	for i, d := range decls {
		if !strings.HasSuffix(d.Value, "!important") {
			d.Value += " !important"
		}
		out[i] = d
	}
	return out
}

// resolveUtility finds the fragments for the utility part of c.
func (e *Engine) resolveUtility(c Candidate) ([]Fragment, int, Layer, bool) {
	u := c.Utility
	if frags, ok := arbitraryProperty(u); ok {
		if c.Negative {
			return nil, 0, "", false
		}
		return frags, 1 << 30, LayerUtilities, true
	}
	if s, ok := e.statics[u]; ok && !c.Negative {
		return s.frags, s.order, s.layer, true
	}
	if frags, f, ok := e.tryFunctional(u, "", c.Negative); ok {
		return frags, f.order, f.Layer, true
	}
	for _, i := range splitPoints(u) {
		if frags, f, ok := e.tryFunctional(u[:i], u[i+1:], c.Negative); ok {
			return frags, f.order, f.Layer, true
		}
	}
	return nil, 0, "", false
}

func (e *Engine) tryFunctional(root, rest string, negative bool) ([]Fragment, *Functional, bool) {
	fs := e.functionals[root]
	if len(fs) == 0 {
		return nil, nil, false
	}
	v, ok := parseValue(rest)
	if !ok {
		return nil, nil, false
	}
	v.Negative = negative
	for _, f := range fs {
		if negative && !f.Negatable {
			continue
		}
		if frags, ok := f.Resolve(v); ok && len(frags) > 0 {
			return frags, f, true
		}
	}
	return nil, nil, false
}

// arbitraryProperty handles "[mask-type:luminance]".
func arbitraryProperty(u string) ([]Fragment, bool) {
	if !isArbitrary(u) {
		return nil, false
	}
	prop, val, ok := strings.Cut(u[1:len(u)-1], ":")
	if !ok || prop == "" || val == "" || !isPropertyName(prop) {
		return nil, false
	}
	return []Fragment{{Decls: []Decl{{Prop: prop, Value: decodeArbitrary(val)}}}}, true
}

func isPropertyName(s string) bool {
	for _, r := range s {
		if !(r == '-' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// Sheet is the output of one generation pass
type Sheet struct {
	Base       []Rule
	Components []Rule
	Utilities  []Rule
	Classes    []string // candidates that produced rules, sorted
	Unresolved []string // candidates that produced nothing, sorted
}

// Generate resolves candidates and returns the sorted rules per layer.
// Unresolvable and blocklisted candidates are dropped.
func (e *Engine) Generate(candidates []string) *Sheet {
	uniq := slices.Clone(candidates)
	sort.Strings(uniq)
	uniq = slices.Compact(uniq)

	sheet := &Sheet{Base: slices.Clone(e.base)}
	for _, raw := range uniq {
		if e.blocked[raw] {
			continue
		}
		rules := e.Resolve(raw)
		if len(rules) == 0 {
			sheet.Unresolved = append(sheet.Unresolved, raw)
			continue
		}
		sheet.Classes = append(sheet.Classes, raw)
		for _, r := range rules {
			if r.Layer == LayerComponents {
				sheet.Components = append(sheet.Components, r)
			} else {
				sheet.Utilities = append(sheet.Utilities, r)
			}
		}
	}
	sortRules(sheet.Components)
	sortRules(sheet.Utilities)
	return sheet
}

func sortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].key.less(rules[j].key) })
}

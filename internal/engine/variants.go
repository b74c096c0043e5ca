package engine

import (
	"sort"
	"strings"
)

// selectorState accumulates what variants do to a rule.
type selectorState struct {
	template string // "&" is the class selector with its pseudo parts
	pseudo   string // pseudo-classes attached to the class
	element  string // pseudo-element, always last
	atRules  []string
	rank     int
	mask     uint64
}

type variant struct {
	bit   int // mask bit, -1 for screens which sort by rank instead
	apply func(st *selectorState)
}

var pseudoClasses = []struct{ name, selector string }{
	{"first", ":first-child"},
	{"last", ":last-child"},
	{"odd", ":nth-child(odd)"},
	{"even", ":nth-child(even)"},
	{"visited", ":visited"},
	{"checked", ":checked"},
	{"focus-within", ":focus-within"},
	{"hover", ":hover"},
	{"focus", ":focus"},
	{"focus-visible", ":focus-visible"},
	{"active", ":active"},
	{"disabled", ":disabled"},
}

var pseudoElements = []struct{ name, selector string }{
	{"placeholder", "::placeholder"},
	{"before", "::before"},
	{"after", "::after"},
}

// Mask bits. Pseudo-classes take 0..11, pseudo-elements 12..14, group-* 16..27
// and peer-* 32..43.
const (
	bitPseudoElement = 12
	bitGroup         = 16
	bitPeer          = 32
	bitDark          = 50
	bitPrint         = 51
	bitMotionSafe    = 52
	bitMotionReduce  = 53
	bitArbitrary     = 60
)

func (e *Engine) registerVariants() {
	e.variants = make(map[string]variant)
	group := "." + EscapeClass(e.opts.Prefix+"group")
	peer := "." + EscapeClass(e.opts.Prefix+"peer")

	for i, pc := range pseudoClasses {
		sel := pc.selector
		e.variants[pc.name] = variant{bit: i, apply: func(st *selectorState) {
			st.pseudo += sel
		}}
		e.variants["group-"+pc.name] = variant{bit: bitGroup + i, apply: func(st *selectorState) {
			st.template = group + sel + " " + st.template
		}}
		e.variants["peer-"+pc.name] = variant{bit: bitPeer + i, apply: func(st *selectorState) {
			st.template = peer + sel + " ~ " + st.template
		}}
	}
	for i, pe := range pseudoElements {
		sel := pe.selector
		e.variants[pe.name] = variant{bit: bitPseudoElement + i, apply: func(st *selectorState) {
			st.element = sel
		}}
	}

	switch e.opts.DarkMode.Strategy {
	case "class":
		sel := e.opts.DarkMode.Selector
		e.variants["dark"] = variant{bit: bitDark, apply: func(st *selectorState) {
			st.template = sel + " " + st.template
		}}
	default:
		e.variants["dark"] = atRuleVariant(bitDark, "@media (prefers-color-scheme: dark)")
	}
	e.variants["print"] = atRuleVariant(bitPrint, "@media print")
	e.variants["motion-safe"] = atRuleVariant(bitMotionSafe, "@media (prefers-reduced-motion: no-preference)")
	e.variants["motion-reduce"] = atRuleVariant(bitMotionReduce, "@media (prefers-reduced-motion: reduce)")

	for i, s := range e.screens {
		rank := i + 1
		query := "@media (min-width: " + s.MinWidth + ")"
		e.variants[s.Name] = variant{bit: -1, apply: func(st *selectorState) {
			st.atRules = append([]string{query}, st.atRules...)
			st.rank = max(st.rank, rank)
		}}
	}
}

func atRuleVariant(bit int, rule string) variant {
	return variant{bit: bit, apply: func(st *selectorState) {
		st.atRules = append([]string{rule}, st.atRules...)
	}}
}

// applyVariant applies a named or arbitrary variant; false when unknown.
func (e *Engine) applyVariant(name string, st *selectorState) bool {
	if v, ok := e.variants[name]; ok {
		v.apply(st)
		if v.bit >= 0 {
			st.mask |= 1 << uint(v.bit)
		}
		return true
	}
	if !isArbitrary(name) {
		return false
	}
	inner := decodeArbitrary(name[1 : len(name)-1])
	switch {
	case strings.HasPrefix(inner, "@"):
		st.atRules = append([]string{inner}, st.atRules...)
	case strings.Count(inner, "&") == 1:
		st.template = strings.Replace(inner, "&", st.template, 1)
	default:
		return false
	}
	st.mask |= 1 << bitArbitrary
	return true
}

// VariantNames lists the registered variant names.
func (e *Engine) VariantNames() []string {
	names := make([]string, 0, len(e.variants))
	for n := range e.variants {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

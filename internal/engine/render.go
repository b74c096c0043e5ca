package engine

import (
	"slices"
	"strings"
)

// Render writes rules as CSS. Consecutive rules sharing the same at-rules
// are grouped into one block.
func Render(rules []Rule, minify bool) string {
	var b strings.Builder
	w := writer{b: &b, minify: minify}
	for i := 0; i < len(rules); {
		j := i + 1
		for j < len(rules) && rules[j].Raw == "" && rules[i].Raw == "" && slices.Equal(rules[j].AtRules, rules[i].AtRules) {
			j++
		}
		w.group(rules[i:j])
		i = j
	}
	return b.String()
}

// Render writes a single layer of the sheet.
func (s *Sheet) Render(layer Layer, minify bool) string {
	switch layer {
	case LayerBase:
		return Render(s.Base, minify)
	case LayerComponents:
		return Render(s.Components, minify)
	case LayerUtilities:
		return Render(s.Utilities, minify)
	}
	return ""
}

type writer struct {
	b      *strings.Builder
	minify bool
}

func (w writer) group(rules []Rule) {
	if rules[0].Raw != "" {
		w.b.WriteString(rules[0].Raw)
		w.newline()
		return
	}
	at := rules[0].AtRules
	for depth, a := range at {
		w.indent(depth)
		w.b.WriteString(a)
		w.open()
	}
	for _, r := range rules {
		w.rule(r, len(at))
	}
	for depth := len(at) - 1; depth >= 0; depth-- {
		w.indent(depth)
		w.b.WriteString("}")
		w.newline()
	}
}

func (w writer) rule(r Rule, depth int) {
	w.indent(depth)
	w.b.WriteString(r.Selector)
	w.open()
	for i, d := range r.Decls {
		if w.minify {
			if i > 0 {
				w.b.WriteByte(';')
			}
			w.b.WriteString(d.Prop)
			w.b.WriteByte(':')
			w.b.WriteString(d.Value)
			continue
		}
		w.indent(depth + 1)
		w.b.WriteString(d.Prop)
		w.b.WriteString(": ")
		w.b.WriteString(d.Value)
		w.b.WriteString(";\n")
	}
	w.indent(depth)
	w.b.WriteString("}")
	w.newline()
}

func (w writer) open() {
	if w.minify {
		w.b.WriteByte('{')
		return
	}
	w.b.WriteString(" {\n")
}

func (w writer) newline() {
	if !w.minify {
		w.b.WriteByte('\n')
	}
}

func (w writer) indent(depth int) {
	if !w.minify {
		w.b.WriteString(strings.Repeat("  ", depth))
	}
}

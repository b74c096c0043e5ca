package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the part of a functional utility after its root, e.g. "red-500/50"
// in "bg-red-500/50" or "[3px]" in "w-[3px]".
type Value struct {
	Raw       string // theme key, or the decoded arbitrary value
	Arbitrary bool
	Hint      string // data type hint of an arbitrary value ("color", "length", ...)
	Modifier  string // text after the last '/', decoded when arbitrary
	Negative  bool

	modifierArbitrary bool
}

// IsDefault reports whether the utility was used without a value ("border", "rounded").
func (v Value) IsDefault() bool {
	return v.Raw == "" && !v.Arbitrary
}

// Full returns the theme key including the modifier, so "1/2" stays whole.
func (v Value) Full() string {
	if v.Modifier == "" || v.modifierArbitrary {
		return v.Raw
	}
	return v.Raw + "/" + v.Modifier
}

// hints are the data types an arbitrary value may be prefixed with.
var hints = map[string]bool{
	"color": true, "length": true, "percentage": true, "number": true,
	"url": true, "image": true, "family-name": true, "absolute-size": true,
	"line-width": true, "position": true, "any": true,
}

func parseValue(s string) (Value, bool) {
	var v Value
	if s == "" {
		return v, true
	}
	if i := lastIndexOutsideBrackets(s, '/'); i > 0 {
		mod := s[i+1:]
		if mod == "" {
			return v, false
		}
		if isArbitrary(mod) {
			v.Modifier, v.modifierArbitrary = decodeArbitrary(mod[1:len(mod)-1]), true
		} else {
			v.Modifier = mod
		}
		s = s[:i]
	}
	if isArbitrary(s) {
		inner := s[1 : len(s)-1]
		if inner == "" {
			return v, false
		}
		if hint, rest, ok := strings.Cut(inner, ":"); ok && hints[hint] {
			v.Hint, inner = hint, rest
		}
		v.Raw, v.Arbitrary = decodeArbitrary(inner), true
		return v, true
	}
	if strings.ContainsAny(s, "[]") {
		return v, false
	}
	v.Raw = s
	return v, true
}

func isArbitrary(s string) bool {
	return len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']'
}

// decodeArbitrary turns underscores into spaces; an escaped underscore stays.
func decodeArbitrary(s string) string {
	if !strings.ContainsAny(s, "_\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == '_':
			b.WriteByte('_')
			i++
		case s[i] == '_':
			b.WriteByte(' ')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// guessType classifies an arbitrary value without a hint.
func guessType(v Value) string {
	if v.Hint != "" {
		return v.Hint
	}
	s := strings.TrimSpace(v.Raw)
	switch {
	case strings.HasPrefix(s, "#"),
		strings.HasPrefix(s, "rgb"), strings.HasPrefix(s, "hsl"),
		strings.HasPrefix(s, "color-mix("),
		s == "currentColor", s == "transparent":
		return "color"
	case strings.HasPrefix(s, "url("):
		return "url"
	}
	return "length"
}

// Negate flips the sign of a CSS value.
func Negate(value string) string {
	switch {
	case value == "0" || value == "0px":
		return value
	case strings.HasPrefix(value, "-"):
		return value[1:]
	case len(value) > 0 && (value[0] >= '0' && value[0] <= '9' || value[0] == '.'):
		return "-" + value
	}
	return fmt.Sprintf("calc(%s * -1)", value)
}

// withAlpha applies an opacity modifier to a colour.
func withAlpha(color, alpha string) string {
	if r, g, b, ok := parseHex(color); ok {
		return fmt.Sprintf("rgb(%d %d %d / %s)", r, g, b, alpha)
	}
	pct := alpha
	if f, err := strconv.ParseFloat(alpha, 64); err == nil {
		pct = strconv.FormatFloat(f*100, 'f', -1, 64) + "%"
	}
	return fmt.Sprintf("color-mix(in srgb, %s %s, transparent)", color, pct)
}

func parseHex(s string) (r, g, b int, ok bool) {
	if !strings.HasPrefix(s, "#") {
		return 0, 0, 0, false
	}
	h := s[1:]
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 0, 0, 0, false
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff), true
}

package engine

import (
	"strings"
)

// Candidate is a parsed class token such as "md:hover:!-mt-4".
type Candidate struct {
	Raw       string   // the class exactly as written
	Variants  []string // outermost first, as written
	Utility   string   // without the important, negative and prefix markers
	Negative  bool
	Important bool
}

// ParseCandidate splits raw into variants and a utility. It returns false
// when raw cannot be a utility class (empty segments, unbalanced brackets,
// missing prefix).
func ParseCandidate(raw, separator, prefix string) (Candidate, bool) {
	if raw == "" || separator == "" {
		return Candidate{}, false
	}
	parts, ok := splitOutsideBrackets(raw, separator)
	if !ok {
		return Candidate{}, false
	}
	for _, p := range parts {
		if p == "" {
			return Candidate{}, false
		}
	}

	c := Candidate{Raw: raw, Variants: parts[:len(parts)-1]}
	u := parts[len(parts)-1]

	if strings.HasPrefix(u, "!") {
		c.Important, u = true, u[1:]
	} else if strings.HasSuffix(u, "!") {
		c.Important, u = true, u[:len(u)-1]
	}
	if strings.HasPrefix(u, "-") {
		c.Negative, u = true, u[1:]
	}
	if prefix != "" {
		if !strings.HasPrefix(u, prefix) {
			return Candidate{}, false
		}
		u = u[len(prefix):]
	}
	if u == "" || strings.HasPrefix(u, "-") {
		return Candidate{}, false
	}
	c.Utility = u
	return c, true
}

// splitOutsideBrackets splits s on sep, ignoring separators inside [...] or (...).
func splitOutsideBrackets(s, sep string) ([]string, bool) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			depth++
			continue
		case ']', ')':
			depth--
			if depth < 0 {
				return nil, false
			}
			continue
		}
		if depth == 0 && strings.HasPrefix(s[i:], sep) {
			parts = append(parts, s[start:i])
			i += len(sep) - 1
			start = i + 1
		}
	}
	if depth != 0 {
		return nil, false
	}
	return append(parts, s[start:]), true
}

// lastIndexOutsideBrackets returns the index of the last b in s that is not
// inside brackets, or -1.
func lastIndexOutsideBrackets(s string, b byte) int {
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ']', ')':
			depth++
		case '[', '(':
			depth--
		case b:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitPoints returns the indexes of '-' outside brackets, right to left.
func splitPoints(s string) []int {
	var out []int
	depth := 0
	for i := len(s) - 1; i > 0; i-- {
		switch s[i] {
		case ']', ')':
			depth++
		case '[', '(':
			depth--
		case '-':
			if depth == 0 {
				out = append(out, i)
			}
		}
	}
	return out
}

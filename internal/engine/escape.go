package engine

import (
	"fmt"
	"strings"
)

// EscapeClass escapes a class name for use in a selector, following the
// CSS.escape algorithm of CSSOM.
func EscapeClass(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 8)
	for i, r := range name {
		switch {
		case r == 0:
			b.WriteRune('�')
		case r >= 0x1 && r <= 0x1f, r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 0 && r >= '0' && r <= '9':
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 1 && r >= '0' && r <= '9' && name[0] == '-':
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 0 && r == '-' && len(name) == 1:
			b.WriteString("\\-")
		case r >= 0x80, r == '-', r == '_',
			r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

package utilgen

import (
	"fmt"

	"github.com/yacobolo/utilgen/internal/diag"
	"github.com/yacobolo/utilgen/internal/plugin"
)

// DescriptorError is a fatal problem with the descriptor: a syntax error
// or an invalid field.
type DescriptorError struct {
	File   string `json:"file"`
	Field  string `json:"field,omitempty"`  // "theme.extend.colors.brand"
	Line   int    `json:"line,omitempty"`   // 1-based, when known
	Column int    `json:"column,omitempty"` // 1-based, when known
	Msg    string `json:"message"`
}

func (e *DescriptorError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
		if e.Column > 0 {
			loc = fmt.Sprintf("%s:%d", loc, e.Column)
		}
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s", loc, e.Msg)
}

// PluginNotFoundError reports a plugins entry that resolved to nothing.
type PluginNotFoundError = plugin.NotFoundError

// Diagnostic is a non-fatal finding of a build.
type Diagnostic = diag.Diagnostic

// Diagnostic codes
const (
	CodeContentNoMatch   = diag.CodeContentNoMatch
	CodeContentEmpty     = diag.CodeContentEmpty
	CodeSafelistUnknown  = diag.CodeSafelistUnknown
	CodeBlocklistUnknown = diag.CodeBlocklistUnknown
	CodeDuplicateClass   = diag.CodeDuplicateClass
	CodeReadFailed       = diag.CodeReadFailed
)

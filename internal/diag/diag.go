// Package diag defines the non-fatal findings a build collects.
package diag

import (
	"fmt"
	"slices"
)

// Severity of a diagnostic
type Severity string

// Severity constants
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic codes
const (
	CodeContentNoMatch   = "content-no-match"  // a content glob matched zero files
	CodeContentEmpty     = "content-empty"     // the descriptor lists no content globs
	CodeSafelistUnknown  = "safelist-unknown"  // a safelisted class produced no rule
	CodeBlocklistUnknown = "blocklist-unknown" // a blocklisted class is not a known utility
	CodeDuplicateClass   = "duplicate-class"   // a custom class was defined more than once
	CodeReadFailed       = "read-failed"       // a content file could not be read
)

// Diagnostic is a single finding. Subject names what it is about: a glob,
// a class name, a file.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Subject  string   `json:"subject,omitempty"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s [%s]", d.Severity, d.Message, d.Code)
}

// Warning builds a warning diagnostic.
func Warning(code, subject, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Subject:  subject,
	}
}

// List is an append-only collection of diagnostics.
type List []Diagnostic

// Warnings returns only the warning-level entries.
func (l List) Warnings() List {
	var out List
	for _, d := range l {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// Count returns how many entries have the given severity.
func (l List) Count(s Severity) int {
	n := 0
	for _, d := range l {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// Escalate returns a copy with every warning raised to an error.
func (l List) Escalate() List {
	out := slices.Clone(l)
	for i := range out {
		if out[i].Severity == SeverityWarning {
			out[i].Severity = SeverityError
		}
	}
	return out
}

package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListCounts(t *testing.T) {
	l := List{
		Warning(CodeContentNoMatch, "src/**/*.vue", "pattern %q matched no files", "src/**/*.vue"),
		Warning(CodeSafelistUnknown, "nope", "unknown"),
		{Severity: SeverityError, Code: CodeReadFailed, Message: "boom"},
	}

	assert.Equal(t, 2, l.Count(SeverityWarning))
	assert.Equal(t, 1, l.Count(SeverityError))
	assert.Len(t, l.Warnings(), 2)
	assert.Equal(t, `pattern "src/**/*.vue" matched no files`, l[0].Message)
	assert.Equal(t, "error: boom [read-failed]", l[2].String())
}

func TestEscalate(t *testing.T) {
	l := List{Warning(CodeDuplicateClass, "btn", "duplicate")}

	escalated := l.Escalate()
	assert.Equal(t, 1, escalated.Count(SeverityError))
	assert.Empty(t, escalated.Warnings())
	assert.Equal(t, SeverityWarning, l[0].Severity, "original list is unchanged")

	assert.Empty(t, List(nil).Escalate())
}

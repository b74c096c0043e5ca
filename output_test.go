package utilgen

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/utilgen/internal/diag"
	"github.com/yacobolo/utilgen/internal/plugin"
)

func TestDetermineOutputFormat(t *testing.T) {
	tests := []struct {
		name       string
		formatFlag string
		quiet      bool
		expected   OutputFormat
	}{
		{name: "default", formatFlag: "", expected: OutputText},
		{name: "explicit text", formatFlag: "text", expected: OutputText},
		{name: "explicit json", formatFlag: "json", expected: OutputJSON},
		{name: "explicit quiet format", formatFlag: "quiet", expected: OutputQuiet},
		{name: "quiet flag wins", formatFlag: "json", quiet: true, expected: OutputQuiet},
		{name: "invalid falls back", formatFlag: "xml", expected: OutputText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetermineOutputFormat(tt.formatFlag, tt.quiet))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	result := &Result{
		Descriptor: &Descriptor{Path: "tailwind.config.js"},
		Classes:    []string{"flex", "p-4"},
		Unresolved: []string{"const", "div"},
		Plugins:    []plugin.Loaded{{Ref: "@tailwindcss/line-clamp", Name: "line-clamp", Source: "builtin"}},
		Stats:      Stats{FilesScanned: 2, Classes: 2, Rules: 2, Bytes: 64},
		Diagnostics: diag.List{
			diag.Warning(diag.CodeContentNoMatch, "./pages/**/*.vue", "content pattern %q matched no files", "./pages/**/*.vue"),
		},
		OutputPath: "dist/app.css",
		Written:    true,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, result))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "1.0", out.Version)
	assert.Equal(t, "tailwind.config.js", out.Descriptor)
	assert.Equal(t, JSONSummary{Output: "dist/app.css", Written: true, Classes: 2, Warnings: 1, Bytes: 64}, out.Summary)
	assert.Equal(t, []string{"flex", "p-4"}, out.Classes)
	assert.Equal(t, 2, out.Unresolved)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, diag.CodeContentNoMatch, out.Diagnostics[0].Code)
	assert.Equal(t, "line-clamp", out.Plugins[0].Name)
}

func TestWriteJSONEmptyLists(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, &Result{}))

	s := buf.String()
	assert.Contains(t, s, `"diagnostics": []`)
	assert.Contains(t, s, `"classes": []`)
	assert.Contains(t, s, `"plugins": []`)
}

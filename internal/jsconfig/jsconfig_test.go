package jsconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixture(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "tailwind.config.js"))
	require.NoError(t, err)

	assert.Equal(t, "jit", cfg["mode"])
	assert.Equal(t, "class", cfg["darkMode"])
	assert.Equal(t, []any{
		"./src/components/**/*.vue",
		"./src/layouts/**/*.vue",
		"./src/pages/**/*.vue",
	}, cfg["content"])
	assert.Equal(t, map[string]any{"extend": map[string]any{}}, cfg["theme"])
	assert.Equal(t, []any{"!leading-7"}, cfg["safelist"])
	assert.Equal(t, []any{Module{Path: "@rotki/ui-library-compat/theme"}}, cfg["plugins"])
}

func TestParseJavaScript(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[string]any
	}{
		{
			name: "export default",
			src:  `export default { mode: "jit", content: [] }`,
			want: map[string]any{"mode": "jit", "content": []any{}},
		},
		{
			name: "exports.default",
			src:  `exports.default = { darkMode: 'media' };`,
			want: map[string]any{"darkMode": "media"},
		},
		{
			name: "identifier export with spread",
			src: `
const base = { mode: 'jit' };
const globs = ['./a/**/*.vue'];
const config = { ...base, content: [...globs, './b/*.html'] };
module.exports = config;`,
			want: map[string]any{"mode": "jit", "content": []any{"./a/**/*.vue", "./b/*.html"}},
		},
		{
			name: "imports and factory calls",
			src: `
import forms from '@tailwindcss/forms';
const clamp = require('@tailwindcss/line-clamp');
export default { plugins: [forms({ strategy: 'class' }), clamp, require('./local')({ n: 2 })] };`,
			want: map[string]any{"plugins": []any{
				Module{Path: "@tailwindcss/forms", Args: []any{map[string]any{"strategy": "class"}}, Called: true},
				Module{Path: "@tailwindcss/line-clamp"},
				Module{Path: "./local", Args: []any{map[string]any{"n": 2.0}}, Called: true},
			}},
		},
		{
			name: "literals",
			src: "module.exports = { 'quoted-key': `tpl`, 42: -1.5, a: true, b: null, c: undefined, " +
				"d: 0x10, e: 'it\\'s', f: \"\\u0041\", g: (\"paren\"), shorthand };\nvar shorthand = 'x';",
			want: map[string]any{
				"quoted-key": "tpl", "42": -1.5, "a": true, "b": nil, "c": nil,
				"d": 16.0, "e": "it's", "f": "A", "g": "paren", "shorthand": "x",
			},
		},
		{
			name: "regex literal",
			src:  `module.exports = { safelist: [/^bg-/g] }`,
			want: map[string]any{"safelist": []any{Regex{Pattern: "^bg-", Flags: "g"}}},
		},
		{
			name: "array holes",
			src:  "module.exports = { content: ['a',, 'b', ,], single: [,], trailing: [1,], }",
			want: map[string]any{
				"content":  []any{"a", nil, "b", nil},
				"single":   []any{nil},
				"trailing": []any{1.0},
			},
		},
		{
			name: "comments",
			src: `/** @type {import('tailwindcss').Config} */
module.exports = {
  // scanned
  content: ['./x.html', /* inline */ './y.html'],
};`,
			want: map[string]any{"content": []any{"./x.html", "./y.html"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.src), "tailwind.config.js", JavaScript)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTypeScript(t *testing.T) {
	src := `import type { Config } from 'tailwindcss'

export default {
  content: ['./src/**/*.{ts,tsx}'],
  theme: { extend: { colors: { brand: '#0af' } } },
} satisfies Config
`
	got, err := Parse([]byte(src), "tailwind.config.ts", TypeScript)
	require.NoError(t, err)
	assert.Equal(t, []any{"./src/**/*.{ts,tsx}"}, got["content"])
	assert.Equal(t, map[string]any{"extend": map[string]any{"colors": map[string]any{"brand": "#0af"}}}, got["theme"])

	got, err = Parse([]byte(`const c = { mode: 'jit' } as const; export default c;`), "c.ts", TypeScript)
	require.NoError(t, err)
	assert.Equal(t, "jit", got["mode"])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		line    int
		column  int
		message string
	}{
		{
			name:    "syntax error",
			src:     "module.exports = {\n  mode: 'jit',,\n}",
			line:    2,
			column:  15,
			message: "syntax error",
		},
		{
			name:    "leading comma in object",
			src:     "module.exports = {, mode: 'jit' }",
			line:    1,
			column:  19,
			message: "syntax error",
		},
		{
			name:    "empty plugin argument",
			src:     "module.exports = { plugins: [require('x')(,)] }",
			message: "syntax error",
		},
		{
			name:    "no export",
			src:     "const x = {}",
			line:    1,
			column:  1,
			message: "no exported configuration",
		},
		{
			name:    "function value",
			src:     "module.exports = {\n  plugins: [function ({ addBase }) {}],\n}",
			line:    2,
			column:  13,
			message: "functions are not supported",
		},
		{
			name:    "arithmetic",
			src:     "module.exports = { a: 1 + 2 }",
			line:    1,
			column:  23,
			message: "unsupported expression binary_expression",
		},
		{
			name:    "template substitution",
			src:     "const d = 'x'; module.exports = { a: `${d}/y` }",
			line:    1,
			column:  39,
			message: "template substitutions are not supported",
		},
		{
			name:    "unresolved identifier",
			src:     "module.exports = { content: paths }",
			line:    1,
			column:  29,
			message: `unresolved identifier "paths"`,
		},
		{
			name:    "export of non-object",
			src:     "module.exports = ['a']",
			line:    1,
			column:  18,
			message: "exported configuration must be an object, got an array",
		},
		{
			name:    "calling a local function",
			src:     "module.exports = { a: foo() }",
			line:    1,
			column:  23,
			message: `call of "foo" is not supported`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.js", JavaScript)
			require.Error(t, err)

			var se *SyntaxError
			require.True(t, errors.As(err, &se), "expected SyntaxError, got %T", err)
			assert.Equal(t, "bad.js", se.File)
			if tt.line > 0 {
				assert.Equal(t, tt.line, se.Line)
			}
			if tt.column > 0 {
				assert.Equal(t, tt.column, se.Column)
			}
			assert.Contains(t, se.Msg, tt.message)
		})
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.coffee")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config extension")
}

func TestLangForPath(t *testing.T) {
	for path, want := range map[string]Lang{
		"tailwind.config.js":  JavaScript,
		"tailwind.config.cjs": JavaScript,
		"tailwind.config.mjs": JavaScript,
		"tailwind.config.ts":  TypeScript,
		"tailwind.config.mts": TypeScript,
	} {
		got, ok := LangForPath(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	_, ok := LangForPath("config.yaml")
	assert.False(t, ok)
}

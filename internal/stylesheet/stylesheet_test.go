package stylesheet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/utilgen/internal/engine"
)

func TestPrepareDefault(t *testing.T) {
	e := engine.New(engine.Options{})
	doc, err := Prepare("default.css", Default, e)
	require.NoError(t, err)
	assert.Equal(t, []engine.Layer{engine.LayerBase, engine.LayerComponents, engine.LayerUtilities}, doc.Directives())

	out := doc.Render(e.Generate([]string{"flex"}), false)
	assert.Contains(t, out, ".flex {\n  display: flex;\n}\n")
}

func TestPrepareUnknownDirective(t *testing.T) {
	e := engine.New(engine.Options{})
	_, err := Prepare("in.css", "\n@tailwind screens;", e)
	require.Error(t, err)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Line)
	assert.Contains(t, se.Msg, `unknown @tailwind layer "screens"`)
}

func TestLayerComponents(t *testing.T) {
	input := `@tailwind components;
@tailwind utilities;

@layer components {
  .btn {
    @apply px-4 font-bold;
    border: none;
  }
  .btn:hover, .card .title { color: red; }
  @media print {
    .btn { display: none; }
  }
}
`
	e := engine.New(engine.Options{})
	doc, err := Prepare("in.css", input, e)
	require.NoError(t, err)

	sheet := e.Generate([]string{"btn", "title", "flex"})
	require.Len(t, sheet.Components, 4)

	var selectors []string
	for _, r := range sheet.Components {
		selectors = append(selectors, r.Selector)
	}
	assert.Equal(t, []string{".btn", ".btn:hover", ".btn", ".card .title"}, selectors)
	assert.Equal(t, []engine.Decl{
		{Prop: "padding-left", Value: "1rem"},
		{Prop: "padding-right", Value: "1rem"},
		{Prop: "font-weight", Value: "700"},
		{Prop: "border", Value: "none"},
	}, sheet.Components[0].Decls)
	assert.Equal(t, []string{"@media print"}, sheet.Components[2].AtRules)

	out := doc.Render(sheet, false)
	assert.Contains(t, out, ".btn:hover {\n  color: red;\n}\n")
	assert.Contains(t, out, "@media print {\n  .btn {\n    display: none;\n  }\n}\n")
	assert.NotContains(t, out, "@layer")
}

func TestLayerUtilitiesVariants(t *testing.T) {
	input := "@tailwind utilities;\n@layer utilities { .content-auto { content-visibility: auto; } }\n"
	e := engine.New(engine.Options{})
	doc, err := Prepare("in.css", input, e)
	require.NoError(t, err)

	out := doc.Render(e.Generate([]string{"hover:content-auto", "md:content-auto"}), false)
	assert.Contains(t, out, ".hover\\:content-auto:hover {\n  content-visibility: auto;\n}\n")
	assert.Contains(t, out, "@media (min-width: 768px) {\n  .md\\:content-auto {\n    content-visibility: auto;\n  }\n}\n")
}

func TestLayerBase(t *testing.T) {
	input := "@tailwind base;\n@layer base { h1 { @apply font-bold; } }\n"
	e := engine.New(engine.Options{})
	doc, err := Prepare("in.css", input, e)
	require.NoError(t, err)

	out := doc.Render(e.Generate(nil), false)
	assert.Contains(t, out, "h1 { font-weight: 700; }")
}

func TestApplyOutsideLayer(t *testing.T) {
	input := "main { @apply px-4 !important; }\n@tailwind utilities;\n"
	e := engine.New(engine.Options{})
	doc, err := Prepare("in.css", input, e)
	require.NoError(t, err)

	out := doc.Render(e.Generate(nil), false)
	assert.Equal(t, "main { padding-left: 1rem !important; padding-right: 1rem !important; }\n\n", out)
}

func TestPrepareErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		message string
	}{
		{
			name:    "unknown apply",
			input:   "a {\n  @apply nope;\n}",
			line:    2,
			message: `@apply "nope"`,
		},
		{
			name:    "apply with variant",
			input:   "@layer components {\n  .x { @apply hover:flex; }\n}",
			line:    2,
			message: "variants cannot be applied",
		},
		{
			name:    "nested rule in class rule",
			input:   "@layer components {\n  .x { color: red; .y { color: blue; } }\n}",
			message: "nested rules are not supported",
		},
		{
			name:    "unclosed block",
			input:   "@layer utilities {\n  .x { color: red; }\n",
			line:    1,
			message: "unclosed block",
		},
		{
			name:    "stray brace",
			input:   "}\n",
			line:    1,
			message: "unexpected }",
		},
		{
			name:    "unsupported at-rule in layer",
			input:   "@layer utilities {\n  @font-face { font-family: x; }\n}",
			line:    2,
			message: "@font-face is not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare("in.css", tt.input, engine.New(engine.Options{}))
			require.Error(t, err)

			var se *Error
			require.True(t, errors.As(err, &se), "expected *Error, got %T", err)
			if tt.line > 0 {
				assert.Equal(t, tt.line, se.Line)
			}
			assert.Contains(t, se.Msg, tt.message)
		})
	}
}

func TestRenderMinifyKeepsUserText(t *testing.T) {
	input := "body { margin: 0; }\n\n@tailwind utilities;\n"
	e := engine.New(engine.Options{})
	doc, err := Prepare("in.css", input, e)
	require.NoError(t, err)

	out := doc.Render(e.Generate([]string{"flex", "block"}), true)
	assert.Equal(t, "body { margin: 0; }\n\n.block{display:block}.flex{display:flex}", out)
}

func TestRegisterPluginCSS(t *testing.T) {
	e := engine.New(engine.Options{})
	css := `.line-clamp-2 { overflow: hidden; -webkit-line-clamp: 2; }
@layer components { .badge { border-radius: 9999px; } }`
	require.NoError(t, Register("plugin.css", css, e, engine.LayerUtilities))

	sheet := e.Generate([]string{"line-clamp-2", "badge"})
	require.Len(t, sheet.Utilities, 1)
	require.Len(t, sheet.Components, 1)
	assert.Equal(t, ".line-clamp-2", sheet.Utilities[0].Selector)
	assert.Equal(t, ".badge", sheet.Components[0].Selector)

	err := Register("plugin.css", "h1 { color: red; }", e, engine.LayerUtilities)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no class")
}

func TestUnescape(t *testing.T) {
	for in, want := range map[string]string{
		"btn":      "btn",
		`hover\:x`: "hover:x",
		`\32 xl`:   "2xl",
		`w-1\/2`:   "w-1/2",
		`a\31 0b`:  "a10b",
	} {
		assert.Equal(t, want, unescape(in), in)
	}
}

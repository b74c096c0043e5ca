package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	th := Default()

	tok, ok := th.Lookup("colors", "red-500")
	require.True(t, ok)
	assert.Equal(t, "#ef4444", tok.Value)

	tok, ok = th.Lookup("fontSize", "sm")
	require.True(t, ok)
	assert.Equal(t, "0.875rem", tok.Value)
	assert.Equal(t, "1.25rem", tok.LineHeight)

	tok, ok = th.Lookup("fontFamily", "mono")
	require.True(t, ok)
	assert.Equal(t, "ui-monospace, SFMono-Regular, monospace", tok.Value)

	tok, ok = th.Lookup("borderRadius", "DEFAULT")
	require.True(t, ok)
	assert.Equal(t, "0.25rem", tok.Value)
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	a := Default()
	a.Extend("colors", Scale{"brand": {Value: "#123456"}})

	b := Default()
	_, ok := b.Lookup("colors", "brand")
	assert.False(t, ok, "mutating one copy must not leak into the next")
}

func TestLookupFallsBackToParent(t *testing.T) {
	th := Default()

	tok, ok := th.Lookup("width", "4")
	require.True(t, ok)
	assert.Equal(t, "1rem", tok.Value)

	tok, ok = th.Lookup("backgroundColor", "blue-600")
	require.True(t, ok)
	assert.Equal(t, "#2563eb", tok.Value)

	_, ok = th.Lookup("fontWeight", "4")
	assert.False(t, ok)
}

func TestApplyOverrideThenExtend(t *testing.T) {
	th := Default()
	th.Apply(
		map[string]Scale{"opacity": {"50": {Value: ".5"}}},
		map[string]Scale{
			"opacity": {"15": {Value: ".15"}},
			"colors":  {"brand": {Value: "#0af"}},
		},
	)

	_, ok := th.Lookup("opacity", "10")
	assert.False(t, ok, "override replaces the category")

	tok, ok := th.Lookup("opacity", "15")
	require.True(t, ok)
	assert.Equal(t, ".15", tok.Value)

	_, ok = th.Lookup("colors", "red-500")
	assert.True(t, ok, "extend keeps existing keys")
	tok, _ = th.Lookup("colors", "brand")
	assert.Equal(t, "#0af", tok.Value)
}

func TestFromRaw(t *testing.T) {
	tests := []struct {
		name     string
		category string
		raw      any
		want     Scale
		wantErr  string
	}{
		{
			name:     "nested colours flatten",
			category: "colors",
			raw: map[string]any{
				"brand": map[string]any{"DEFAULT": "#111", "light": "#eee"},
			},
			want: Scale{"brand": {Value: "#111"}, "brand-light": {Value: "#eee"}},
		},
		{
			name:     "yaml integer keys",
			category: "colors",
			raw:      map[string]any{"primary": map[any]any{500: "#333"}},
			want:     Scale{"primary-500": {Value: "#333"}},
		},
		{
			name:     "fontSize tuple with lineHeight object",
			category: "fontSize",
			raw: map[string]any{
				"huge": []any{"5rem", map[string]any{"lineHeight": "1"}},
			},
			want: Scale{"huge": {Value: "5rem", LineHeight: "1"}},
		},
		{
			name:     "fontSize object",
			category: "fontSize",
			raw:      map[string]any{"tiny": map[string]any{"fontSize": "0.5rem", "lineHeight": 0.75}},
			want:     Scale{"tiny": {Value: "0.5rem", LineHeight: "0.75"}},
		},
		{
			name:     "numbers",
			category: "zIndex",
			raw:      map[string]any{"60": int64(60), "top": 9999.0},
			want:     Scale{"60": {Value: "60"}, "top": {Value: "9999"}},
		},
		{
			name:     "flattened key collision",
			category: "colors",
			raw: map[string]any{
				"brand-500": "#111111",
				"brand":     map[string]any{"500": "#222222"},
			},
			wantErr: `theme.colors.brand-500: key "brand-500" is also set by theme.colors.brand.500`,
		},
		{
			name:     "DEFAULT collision",
			category: "colors",
			raw: map[string]any{
				"ink-soft": "#111",
				"ink":      map[string]any{"soft": map[string]any{"DEFAULT": "#222"}},
			},
			wantErr: `theme.colors.ink-soft: key "ink-soft" is also set by theme.colors.ink.soft.DEFAULT`,
		},
		{
			name:     "not an object",
			category: "colors",
			raw:      "red",
			wantErr:  "theme.colors: expected an object, got string",
		},
		{
			name:     "array outside font categories",
			category: "spacing",
			raw:      map[string]any{"x": []any{"1px"}},
			wantErr:  "theme.spacing.x: arrays are only allowed in fontSize and fontFamily",
		},
		{
			name:     "boolean value",
			category: "opacity",
			raw:      map[string]any{"full": true},
			wantErr:  "theme.opacity.full: expected a string or number, got boolean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromRaw("theme."+tt.category, tt.category, tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScreensOrderedByWidth(t *testing.T) {
	th := Default()
	th.Extend("screens", Scale{"xs": {Value: "30rem"}, "3xl": {Value: "1920px"}})

	var names []string
	for _, s := range th.Screens() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"xs", "sm", "md", "lg", "xl", "2xl", "3xl"}, names)
}

func TestScaleKeysOrder(t *testing.T) {
	s := Scale{"lg": {}, "DEFAULT": {}, "10": {}, "1/2": {}, "2": {}, "px": {}}
	assert.Equal(t, []string{"DEFAULT", "1/2", "2", "10", "lg", "px"}, s.Keys())
}

func TestIsCategory(t *testing.T) {
	assert.True(t, IsCategory("colors"))
	assert.True(t, IsCategory("transitionDuration"))
	assert.False(t, IsCategory("colours"))
	assert.False(t, IsCategory("extend"))
}

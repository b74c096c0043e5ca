package utilgen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/utilgen/internal/diag"
	"github.com/yacobolo/utilgen/internal/logging"
)

func TestExtractCandidates(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "html class attribute",
			input: `<div class="flex p-4 hover:bg-red-500">`,
			want:  []string{"class", "div", "flex", "hover:bg-red-500", "p-4"},
		},
		{
			name:  "javascript array",
			input: `const cls = ['p-4', 'md:flex']`,
			want:  []string{"cls", "const", "md:flex", "p-4"},
		},
		{
			name:  "trailing punctuation",
			input: "Use flex.",
			want:  []string{"Use", "flex"},
		},
		{
			name:  "numbers are not candidates",
			input: "123 4.5 -1",
			want:  nil,
		},
		{
			name:  "important and negative markers",
			input: `<p class="!leading-7 -mt-2">`,
			want:  []string{"!leading-7", "-mt-2", "class", "p"},
		},
		{
			name:  "duplicates collapse",
			input: "flex flex\nflex",
			want:  []string{"flex"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCandidates([]byte(tt.input)))
		})
	}
}

func TestExtractCandidatesArbitraryValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "calc", input: `<div class="w-[calc(100%-1rem)]">`, want: "w-[calc(100%-1rem)]"},
		{name: "variant and arbitrary color", input: `class="hover:bg-[#1da1f2]"`, want: "hover:bg-[#1da1f2]"},
		{name: "arbitrary property", input: `x-bind:class="[mask-type:luminance]"`, want: "[mask-type:luminance]"},
		{name: "arbitrary variant", input: "[&>*]:p-4", want: "[&>*]:p-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, ExtractCandidates([]byte(tt.input)), tt.want)
		})
	}
}

func TestExtractCandidatesDropsUnbalancedAndLong(t *testing.T) {
	got := ExtractCandidates([]byte("w-[10px " + strings.Repeat("a", maxCandidateLen+1)))
	for _, c := range got {
		assert.NotContains(t, c, "[", "unbalanced bracket token %q", c)
		assert.LessOrEqual(t, len(c), maxCandidateLen)
	}
}

func newTestScanner(t *testing.T, root string) *Scanner {
	t.Helper()
	s, err := NewScanner(root, logging.Discard())
	require.NoError(t, err)
	return s
}

func TestScannerFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/pages/index.vue", `<div class="flex">`)
	writeFile(t, root, "src/components/Button.vue", `<button class="px-4">`)
	writeFile(t, root, "src/components/Button.gen.vue", `<button class="generated">`)
	writeFile(t, root, "src/vendor/lib.vue", `<i class="vendor">`)
	writeFile(t, root, ".gitignore", "*.gen.vue\n")

	s := newTestScanner(t, root)
	files, hits, stats, err := s.Files([]string{
		"./src/**/*.vue",
		"./src/pages/*.vue",
		"!./src/vendor/**",
		"./templates/**/*.html",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "src", "components", "Button.vue"),
		filepath.Join(root, "src", "pages", "index.vue"),
	}, files)
	assert.Equal(t, 4, hits["./src/**/*.vue"])
	assert.Equal(t, 1, hits["./src/pages/*.vue"])
	assert.Equal(t, 0, hits["./templates/**/*.html"])
	assert.Equal(t, 4, stats.FilesDiscovered)
	assert.Equal(t, 2, stats.FilesSkipped)
}

func TestScannerScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.html", `<div class="flex p-4">`)
	writeFile(t, root, "src/b.html", `<div class="flex mt-2">`)

	s := newTestScanner(t, root)
	res, err := s.Scan(context.Background(), []string{"src/*.html", "pages/*.html"})
	require.NoError(t, err)

	assert.Len(t, res.Files, 2)
	assert.Equal(t, 2, res.Stats.FilesScanned)
	for _, c := range []string{"flex", "p-4", "mt-2"} {
		assert.Contains(t, res.Candidates, c)
	}
	assert.IsIncreasing(t, res.Candidates)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.CodeContentNoMatch, res.Diagnostics[0].Code)
	assert.Equal(t, "pages/*.html", res.Diagnostics[0].Subject)
}

func TestScannerScanNoPatterns(t *testing.T) {
	s := newTestScanner(t, t.TempDir())
	res, err := s.Scan(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, res.Files)
	assert.Empty(t, res.Candidates)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.CodeContentEmpty, res.Diagnostics[0].Code)
}

func TestScannerCache(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "index.html", `<div class="flex">`)
	writeFile(t, root, "empty.html", "")

	s := newTestScanner(t, root)
	first, err := s.Scan(context.Background(), []string{"*.html"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Stats.CacheHits)

	second, err := s.Scan(context.Background(), []string{"*.html"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Stats.CacheHits)
	assert.Equal(t, first.Candidates, second.Candidates)

	// A size change invalidates the entry even if the mtime is unchanged.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(`<div class="grid gap-4">`), 0o644))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

	third, err := s.Scan(context.Background(), []string{"*.html"})
	require.NoError(t, err)
	assert.Equal(t, 1, third.Stats.CacheHits)
	assert.Contains(t, third.Candidates, "grid")
	assert.NotContains(t, third.Candidates, "flex")
}

func TestScannerScanCanceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", `<div class="flex">`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestScanner(t, root).Scan(ctx, []string{"*.html"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestScannerAbsolutePattern(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	writeFile(t, other, "shared/card.html", `<div class="rounded-lg">`)

	s := newTestScanner(t, root)
	res, err := s.Scan(context.Background(), []string{filepath.ToSlash(filepath.Join(other, "shared", "*.html"))})
	require.NoError(t, err)
	assert.Contains(t, res.Candidates, "rounded-lg")
}

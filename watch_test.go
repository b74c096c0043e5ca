package utilgen

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/utilgen/internal/logging"
)

type buildEvent struct {
	res *Result
	err error
}

// waitForBuild reads builds until one satisfies cond. Extra builds may
// happen when several events fall in separate debounce windows, and a
// descriptor read mid-write fails once before the next event fixes it.
func waitForBuild(t *testing.T, ch <-chan buildEvent, cond func(*Result) bool) *Result {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.err == nil && cond(ev.res) {
				return ev.res
			}
		case <-timeout:
			t.Fatal("timed out waiting for a build")
			return nil
		}
	}
}

func hasClass(class string) func(*Result) bool {
	return func(res *Result) bool { return slices.Contains(res.Classes, class) }
}

func TestWatchRebuildsOnChange(t *testing.T) {
	path := project(t, "content: [\"./src/**/*.html\"]\ncorePlugins: {preflight: false}\n",
		map[string]string{"src/index.html": `<div class="flex">`})
	dir := filepath.Dir(path)

	b, err := NewBuilder(Config{
		DescriptorPath: path,
		OutputPath:     filepath.Join(dir, "dist", "app.css"),
		Logger:         logging.Discard(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	builds := make(chan buildEvent, 16)
	done := make(chan error, 1)
	go func() {
		done <- b.Watch(ctx, 20*time.Millisecond, func(res *Result, err error) {
			builds <- buildEvent{res: res, err: err}
		})
	}()

	first := waitForBuild(t, builds, hasClass("flex"))
	assert.Equal(t, []string{"flex"}, first.Classes)

	// Files in new directories are picked up.
	writeFile(t, dir, "src/pages/about.html", `<div class="grid">`)
	second := waitForBuild(t, builds, hasClass("grid"))
	assert.Equal(t, []string{"flex", "grid"}, second.Classes)

	// Descriptor edits reload the descriptor.
	require.NoError(t, os.WriteFile(path,
		[]byte("content: [\"./src/**/*.html\"]\nsafelist: [\"hidden\"]\ncorePlugins: {preflight: false}\n"), 0o644))
	third := waitForBuild(t, builds, hasClass("hidden"))
	assert.Equal(t, []string{"flex", "grid", "hidden"}, third.Classes)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchRelevant(t *testing.T) {
	path := project(t, "content: [\"./src/**/*.html\", \"!./src/vendor/**\"]\n", nil)
	dir := filepath.Dir(path)
	input := filepath.Join(dir, "styles", "app.css")
	writeFile(t, dir, "styles/app.css", "@tailwind utilities;\n")

	b, err := NewBuilder(Config{
		DescriptorPath: path,
		InputPath:      input,
		OutputPath:     filepath.Join(dir, "src", "out.html"),
		Logger:         logging.Discard(),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "descriptor", path: path, want: true},
		{name: "input stylesheet", path: input, want: true},
		{name: "content file", path: filepath.Join(dir, "src", "a", "b.html"), want: true},
		{name: "output file", path: filepath.Join(dir, "src", "out.html"), want: false},
		{name: "unrelated file", path: filepath.Join(dir, "README.md"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.relevant(tt.path))
		})
	}

	assert.Equal(t, []string{dir, filepath.Join(dir, "styles")}, b.configDirs())
	assert.Equal(t, []string{filepath.Join(dir, "src")}, b.contentBases())
	assert.True(t, b.inContentBase(filepath.Join(dir, "src", "new")))
	assert.False(t, b.inContentBase(filepath.Join(dir, "dist")))
}

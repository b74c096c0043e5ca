package utilgen

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of file events into one rebuild.
const DefaultDebounce = 100 * time.Millisecond

// BuildFunc receives the outcome of every build in watch mode.
type BuildFunc func(res *Result, err error)

// skipDirs are never watched.
var skipDirs = map[string]bool{"node_modules": true, ".git": true}

// Watch builds once, then rebuilds whenever the descriptor, the input
// stylesheet or a content file changes. A descriptor change reloads it
// first. Watch returns when ctx is done.
func (b *Builder) Watch(ctx context.Context, debounce time.Duration, onBuild BuildFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	addDirs := func() {
		for _, dir := range b.configDirs() {
			b.addDir(watcher, dir, watched)
		}
		for _, dir := range b.contentBases() {
			b.addTree(watcher, dir, watched)
		}
	}
	addDirs()
	onBuild(b.Build(ctx))

	var (
		timer       *time.Timer
		fire        <-chan time.Time
		descChanged bool
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// A new directory under a content base may already hold files
			// written before it was watched, so it triggers a build too.
			newDir := event.Has(fsnotify.Create) && b.inContentBase(event.Name) &&
				b.addTree(watcher, event.Name, watched) > 0
			if !newDir && !b.relevant(event.Name) {
				continue
			}
			b.logger.Debug("file event", "op", event.Op.String(), "file", event.Name)
			if samePath(event.Name, b.config.DescriptorPath) {
				descChanged = true
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Error("file watcher error", "error", err)

		case <-fire:
			fire = nil
			if descChanged {
				descChanged = false
				if err := b.Reload(); err != nil {
					onBuild(nil, err)
					continue
				}
				addDirs()
			}
			onBuild(b.Build(ctx))
		}
	}
}

// configDirs lists the directories holding the descriptor and the input
// stylesheet. They are watched without their subdirectories.
func (b *Builder) configDirs() []string {
	dirs := []string{filepath.Dir(b.config.DescriptorPath)}
	if b.config.InputPath != "" {
		dirs = append(dirs, filepath.Dir(b.config.InputPath))
	}
	return dirs
}

// contentBases lists the static base directory of every content glob.
func (b *Builder) contentBases() []string {
	var bases []string
	for _, p := range b.desc.Content.Includes() {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(b.scanner.abs(p)))
		bases = append(bases, filepath.FromSlash(base))
	}
	return bases
}

func (b *Builder) inContentBase(path string) bool {
	for _, base := range b.contentBases() {
		rel, err := filepath.Rel(base, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (b *Builder) addDir(w *fsnotify.Watcher, dir string, watched map[string]bool) {
	if watched[dir] {
		return
	}
	if err := w.Add(dir); err != nil {
		b.logger.Warn("failed to watch directory", "path", dir, "error", err)
		return
	}
	watched[dir] = true
}

// addTree watches dir and its subdirectories and returns how many were
// added. Non-directories are ignored.
func (b *Builder) addTree(w *fsnotify.Watcher, dir string, watched map[string]bool) int {
	added := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if skipDirs[d.Name()] && path != dir {
			return filepath.SkipDir
		}
		if watched[path] {
			return nil
		}
		b.addDir(w, path, watched)
		if watched[path] {
			added++
		}
		return nil
	})
	return added
}

// relevant reports whether a change to path can affect the output.
func (b *Builder) relevant(path string) bool {
	if b.config.OutputPath != "" && b.config.OutputPath != Stdout && samePath(path, b.config.OutputPath) {
		return false
	}
	if samePath(path, b.config.DescriptorPath) || (b.config.InputPath != "" && samePath(path, b.config.InputPath)) {
		return true
	}
	for _, p := range b.desc.Content.Includes() {
		if ok, _ := doublestar.PathMatch(b.scanner.abs(p), path); ok {
			return true
		}
	}
	return false
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}

package utilgen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/edsrzf/mmap-go"
	lru "github.com/hashicorp/golang-lru/v2"
	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/yacobolo/utilgen/internal/diag"
)

// DefaultCacheSize is the number of files whose candidates are kept
// between scans.
const DefaultCacheSize = 4096

// ScanStats tracks file scanning statistics
type ScanStats struct {
	FilesDiscovered int `json:"files_discovered"` // files matched by include globs
	FilesScanned    int `json:"files_scanned"`    // files read (or served from cache)
	FilesSkipped    int `json:"files_skipped"`    // excluded by "!" globs or .gitignore
	CacheHits       int `json:"cache_hits"`
}

// ScanResult is the output of one scan.
type ScanResult struct {
	Files       []string       // sorted
	Candidates  []string       // sorted, unique
	PatternHits map[string]int // include glob -> files it matched
	Stats       ScanStats
	Diagnostics diag.List
}

type cachedFile struct {
	size       int64
	modTime    time.Time
	candidates []string
}

// Scanner expands content globs and extracts class candidates. Globs are
// relative to root. A Scanner may be reused; unchanged files are served
// from its cache.
type Scanner struct {
	root    string
	ignore  *ignore.GitIgnore
	cache   *lru.Cache[string, cachedFile]
	workers int
	logger  *slog.Logger
}

// NewScanner creates a scanner for globs relative to root. A .gitignore in
// root is honoured when present.
func NewScanner(root string, logger *slog.Logger) (*Scanner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, cachedFile](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create scan cache: %w", err)
	}
	s := &Scanner{
		root:    root,
		cache:   cache,
		workers: runtime.GOMAXPROCS(0),
		logger:  logger,
	}
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err == nil {
		s.ignore = gi
	} else if !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("ignoring unreadable .gitignore", "root", root, "error", err)
	}
	return s, nil
}

// abs joins a glob with the scanner root unless it is absolute.
func (s *Scanner) abs(pattern string) string {
	if filepath.IsAbs(pattern) {
		return filepath.Clean(pattern)
	}
	return filepath.Join(s.root, filepath.FromSlash(pattern))
}

// ignored reports whether .gitignore excludes path. Paths outside root
// are never ignored.
func (s *Scanner) ignored(path string) bool {
	if s.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return s.ignore.MatchesPath(filepath.ToSlash(rel))
}

// Files expands patterns into a sorted, deduplicated file list.
func (s *Scanner) Files(patterns []string) ([]string, map[string]int, ScanStats, error) {
	var includes, excludes []string
	for _, p := range patterns {
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			excludes = append(excludes, s.abs(rest))
		} else {
			includes = append(includes, p)
		}
	}

	var stats ScanStats
	hits := make(map[string]int, len(includes))
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range includes {
		matches, err := doublestar.FilepathGlob(s.abs(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, nil, stats, fmt.Errorf("glob pattern %q: %w", pattern, err)
		}
		hits[pattern] += len(matches)
		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true
			stats.FilesDiscovered++
			if s.excluded(match, excludes) || s.ignored(match) {
				stats.FilesSkipped++
				continue
			}
			files = append(files, match)
		}
	}
	sort.Strings(files)
	return files, hits, stats, nil
}

func (s *Scanner) excluded(path string, excludes []string) bool {
	for _, ex := range excludes {
		if ok, _ := doublestar.PathMatch(ex, path); ok {
			return true
		}
	}
	return false
}

// Scan expands patterns and extracts the candidates of every file in
// parallel. Unreadable files become diagnostics.
func (s *Scanner) Scan(ctx context.Context, patterns []string) (*ScanResult, error) {
	files, hits, stats, err := s.Files(patterns)
	if err != nil {
		return nil, err
	}
	res := &ScanResult{Files: files, PatternHits: hits, Stats: stats}

	if len(s.includes(patterns)) == 0 {
		res.Diagnostics = append(res.Diagnostics, diag.Warning(diag.CodeContentEmpty, "content",
			"no content globs configured, only safelisted and declared classes are generated"))
	}
	for _, p := range s.includes(patterns) {
		if hits[p] == 0 {
			res.Diagnostics = append(res.Diagnostics, diag.Warning(diag.CodeContentNoMatch, p,
				"content pattern %q matched no files", p))
		}
	}

	perFile := make([][]string, len(files))
	readErrs := make([]error, len(files))
	fromCache := make([]bool, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perFile[i], fromCache[i], readErrs[i] = s.scanFile(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for i, file := range files {
		if readErrs[i] != nil {
			res.Diagnostics = append(res.Diagnostics, diag.Warning(diag.CodeReadFailed, file,
				"could not read %s: %v", file, readErrs[i]))
			continue
		}
		res.Stats.FilesScanned++
		if fromCache[i] {
			res.Stats.CacheHits++
		}
		for _, c := range perFile[i] {
			if !seen[c] {
				seen[c] = true
				res.Candidates = append(res.Candidates, c)
			}
		}
	}
	sort.Strings(res.Candidates)
	s.logger.Debug("scanned content",
		"files", res.Stats.FilesScanned,
		"skipped", res.Stats.FilesSkipped,
		"cache_hits", res.Stats.CacheHits,
		"candidates", len(res.Candidates))
	return res, nil
}

func (s *Scanner) includes(patterns []string) []string {
	var out []string
	for _, p := range patterns {
		if !strings.HasPrefix(p, "!") {
			out = append(out, p)
		}
	}
	return out
}

// scanFile returns the candidates of one file, from the cache when its
// size and modification time are unchanged.
func (s *Scanner) scanFile(path string) ([]string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, err
	}
	if c, ok := s.cache.Get(path); ok && c.size == info.Size() && c.modTime.Equal(info.ModTime()) {
		return c.candidates, true, nil
	}

	var candidates []string
	err = s.withContents(path, info.Size(), func(data []byte) {
		candidates = ExtractCandidates(data)
	})
	if err != nil {
		return nil, false, err
	}
	s.cache.Add(path, cachedFile{size: info.Size(), modTime: info.ModTime(), candidates: candidates})
	return candidates, false, nil
}

// withContents maps the file read-only and calls fn with its bytes. It
// falls back to os.ReadFile when mapping fails. data is only valid inside fn.
func (s *Scanner) withContents(path string, size int64, fn func(data []byte)) error {
	if size == 0 {
		fn(nil)
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		s.logger.Debug("mmap failed, using fallback", "file", path, "error", err)
		// #nosec G304 - path comes from content globs
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		fn(data)
		return nil
	}
	defer func() {
		if err := m.Unmap(); err != nil {
			s.logger.Warn("failed to unmap file", "file", path, "error", err)
		}
	}()
	fn(m)
	return nil
}

// maxCandidateLen bounds tokens so minified bundles do not flood the set.
const maxCandidateLen = 256

// ExtractCandidates returns the unique class candidates in data. Two passes
// run over the text: one keeps arbitrary values ("w-[calc(100%-1rem)]")
// intact, the other splits on anything that cannot appear in a plain class,
// which recovers classes inside JavaScript arrays and object keys.
func ExtractCandidates(data []byte) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(tok string) {
		tok = strings.TrimRight(tok, ".,:;")
		if tok == "" || len(tok) > maxCandidateLen || seen[tok] || !hasLetter(tok) {
			return
		}
		seen[tok] = true
		out = append(out, tok)
	}
	bracketTokens(data, add)
	plainTokens(data, add)
	sort.Strings(out)
	return out
}

func hasLetter(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		if c >= 'a' && c <= 'z' {
			return true
		}
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// plainClassByte reports bytes allowed in a class outside brackets.
func plainClassByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("-_:./!%#@&*+", c) >= 0
}

// bracketTokens emits tokens that may contain bracketed arbitrary values.
// Inside brackets anything but whitespace is kept; tokens with unbalanced
// brackets are dropped.
func bracketTokens(data []byte, emit func(string)) {
	start, depth := -1, 0
	flush := func(end int) {
		if start >= 0 && depth == 0 && end > start {
			tok := string(data[start:end])
			if strings.ContainsRune(tok, '[') {
				emit(tok)
			}
		}
		start, depth = -1, 0
	}
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case isSpace(c):
			flush(i)
		case c == '[':
			if start < 0 {
				start = i
			}
			depth++
		case c == ']':
			if depth == 0 {
				flush(i)
				continue
			}
			depth--
		case depth > 0:
			// any byte inside brackets
		case plainClassByte(c):
			if start < 0 {
				start = i
			}
		default:
			flush(i)
		}
	}
	flush(len(data))
}

// plainTokens emits maximal runs of plain class bytes.
func plainTokens(data []byte, emit func(string)) {
	start := -1
	for i := 0; i <= len(data); i++ {
		if i < len(data) && plainClassByte(data[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			emit(string(data[start:i]))
			start = -1
		}
	}
}

package utilgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yacobolo/utilgen/internal/diag"
	"github.com/yacobolo/utilgen/internal/engine"
	"github.com/yacobolo/utilgen/internal/plugin"
	"github.com/yacobolo/utilgen/internal/stylesheet"
	"github.com/yacobolo/utilgen/internal/theme"
)

// Stdout is the OutputPath that writes the stylesheet to Config.Stdout.
const Stdout = "-"

// ErrStrict is returned when strict mode turns warnings into a failure.
var ErrStrict = errors.New("warnings reported in strict mode")

// Config holds build configuration
type Config struct {
	DescriptorPath string       // descriptor file; found in the working directory when empty
	InputPath      string       // input stylesheet; the three @tailwind directives when empty
	OutputPath     string       // "-" for stdout, empty to skip writing
	Minify         bool         // compact output for the generated layers
	Strict         bool         // fail when any warning is reported
	Logger         *slog.Logger // slog.Default() when nil
	Stdout         io.Writer    // os.Stdout when nil
}

// Stats summarises a build
type Stats struct {
	FilesScanned int           `json:"files_scanned"`
	FilesSkipped int           `json:"files_skipped"`
	CacheHits    int           `json:"cache_hits"`
	Candidates   int           `json:"candidates"`
	Classes      int           `json:"classes"`
	Rules        int           `json:"rules"`
	Bytes        int           `json:"bytes"`
	Duration     time.Duration `json:"duration_ns"`
}

// Result contains the output of a build
type Result struct {
	Descriptor  *Descriptor     `json:"-"`
	CSS         string          `json:"-"`
	Classes     []string        `json:"classes"`    // classes that produced rules
	Candidates  []string        `json:"candidates"` // every token found in content
	Unresolved  []string        `json:"-"`          // candidates that are not classes
	Plugins     []plugin.Loaded `json:"plugins"`
	Stats       Stats           `json:"stats"`
	Diagnostics diag.List       `json:"diagnostics"`
	OutputPath  string          `json:"output,omitempty"`
	Written     bool            `json:"written"` // false when the output was already up to date
}

// Warnings returns the warning diagnostics.
func (r *Result) Warnings() diag.List {
	return r.Diagnostics.Warnings()
}

// Builder runs builds for one descriptor. It keeps the content scanner and
// its cache between builds.
type Builder struct {
	config  Config
	logger  *slog.Logger
	desc    *Descriptor
	scanner *Scanner
}

// NewBuilder loads the descriptor named by config.
func NewBuilder(config Config) (*Builder, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.DescriptorPath == "" {
		path, err := FindDescriptor(".")
		if err != nil {
			return nil, err
		}
		config.DescriptorPath = path
	}
	b := &Builder{config: config, logger: config.Logger}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload re-reads the descriptor. The scanner is recreated because the
// content root or .gitignore may have changed.
func (b *Builder) Reload() error {
	desc, err := LoadDescriptor(b.config.DescriptorPath)
	if err != nil {
		return err
	}
	scanner, err := NewScanner(desc.Dir(), b.logger)
	if err != nil {
		return err
	}
	b.desc, b.scanner = desc, scanner
	b.logger.Debug("loaded descriptor",
		"path", desc.Path,
		"content", len(desc.Content.Patterns),
		"plugins", len(desc.Plugins))
	return nil
}

// Descriptor returns the loaded descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}

// Config returns the effective configuration.
func (b *Builder) Config() Config {
	return b.config
}

// session is an engine ready to generate, with the prepared input
// stylesheet and the plugins that fed it.
type session struct {
	engine  *engine.Engine
	doc     *stylesheet.Document
	plugins []plugin.Loaded
}

// prepare resolves plugins, builds the theme and engine, and processes the
// input stylesheet. Theme layers apply in order: defaults, plugin
// extensions, descriptor overrides, descriptor extensions.
func (b *Builder) prepare() (*session, error) {
	set, err := plugin.Load(b.desc.Plugins, b.desc.Dir())
	if err != nil {
		return nil, err
	}

	th := theme.Default()
	set.ExtendTheme(th)
	th.Apply(b.desc.Theme.Override, b.desc.Theme.Extend)

	e := engine.New(b.desc.EngineOptions(th))
	if err := set.Apply(e); err != nil {
		return nil, err
	}

	name, input := "<default>", stylesheet.Default
	if b.config.InputPath != "" {
		// #nosec G304 - path comes from trusted configuration
		data, err := os.ReadFile(b.config.InputPath)
		if err != nil {
			return nil, fmt.Errorf("read input stylesheet: %w", err)
		}
		name, input = b.config.InputPath, string(data)
	}
	doc, err := stylesheet.Prepare(name, input, e)
	if err != nil {
		return nil, err
	}
	return &session{engine: e, doc: doc, plugins: set.Plugins()}, nil
}

// Explain resolves a single class against the full configuration.
func (b *Builder) Explain(class string) ([]engine.Rule, error) {
	s, err := b.prepare()
	if err != nil {
		return nil, err
	}
	return s.engine.Explain(class)
}

// Theme returns the effective theme after plugins and descriptor overrides.
func (b *Builder) Theme() (*theme.Theme, error) {
	s, err := b.prepare()
	if err != nil {
		return nil, err
	}
	return s.engine.Theme(), nil
}

// Variants returns the variant names the engine accepts, including those
// added by plugins and screens.
func (b *Builder) Variants() ([]string, error) {
	s, err := b.prepare()
	if err != nil {
		return nil, err
	}
	return s.engine.VariantNames(), nil
}

// Build runs one build: scan, generate, render and write.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	s, err := b.prepare()
	if err != nil {
		return nil, err
	}

	scan, err := b.scanner.Scan(ctx, b.desc.Content.Patterns)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	res := &Result{
		Descriptor: b.desc,
		Candidates: scan.Candidates,
		Plugins:    s.plugins,
		OutputPath: b.config.OutputPath,
	}
	res.Diagnostics = append(res.Diagnostics, scan.Diagnostics...)

	for _, class := range b.desc.Safelist {
		if !s.engine.Known(class) {
			res.Diagnostics = append(res.Diagnostics, diag.Warning(diag.CodeSafelistUnknown, class,
				"safelisted class %q does not generate any rule", class))
		}
	}
	for _, class := range b.desc.Blocklist {
		if !s.engine.Known(class) {
			res.Diagnostics = append(res.Diagnostics, diag.Warning(diag.CodeBlocklistUnknown, class,
				"blocklisted class %q is not a known class", class))
		}
	}

	candidates := make([]string, 0, len(scan.Candidates)+len(b.desc.Safelist))
	candidates = append(candidates, scan.Candidates...)
	candidates = append(candidates, b.desc.Safelist...)
	sheet := s.engine.Generate(candidates)
	res.Diagnostics = append(res.Diagnostics, s.engine.Diagnostics()...)

	res.CSS = s.doc.Render(sheet, b.config.Minify)
	res.Classes = sheet.Classes
	res.Unresolved = sheet.Unresolved
	res.Stats = Stats{
		FilesScanned: scan.Stats.FilesScanned,
		FilesSkipped: scan.Stats.FilesSkipped,
		CacheHits:    scan.Stats.CacheHits,
		Candidates:   len(scan.Candidates),
		Classes:      len(sheet.Classes),
		Rules:        len(sheet.Base) + len(sheet.Components) + len(sheet.Utilities),
		Bytes:        len(res.CSS),
	}

	if b.config.Strict && len(res.Warnings()) > 0 {
		res.Diagnostics = res.Diagnostics.Escalate()
		res.Stats.Duration = time.Since(start)
		return res, fmt.Errorf("%w: %d warning(s)", ErrStrict, res.Diagnostics.Count(diag.SeverityError))
	}

	written, err := b.write(res.CSS)
	if err != nil {
		return nil, err
	}
	res.Written = written
	res.Stats.Duration = time.Since(start)

	b.logger.Debug("build finished",
		"classes", res.Stats.Classes,
		"rules", res.Stats.Rules,
		"bytes", res.Stats.Bytes,
		"written", res.Written,
		"duration", res.Stats.Duration)
	return res, nil
}

// write stores css at the output path. An existing file with identical
// contents is left untouched so its mtime does not change.
func (b *Builder) write(css string) (bool, error) {
	switch b.config.OutputPath {
	case "":
		return false, nil
	case Stdout:
		if _, err := io.WriteString(b.config.Stdout, css); err != nil {
			return false, fmt.Errorf("write stdout: %w", err)
		}
		return true, nil
	}

	path := b.config.OutputPath
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, []byte(css)) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(css), 0o644); err != nil {
		return false, fmt.Errorf("write output: %w", err)
	}
	return true, nil
}

// Build is a convenience wrapper for a single build.
func Build(ctx context.Context, config Config) (*Result, error) {
	b, err := NewBuilder(config)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx)
}

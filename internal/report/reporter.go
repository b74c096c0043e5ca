// Package report renders build results, errors and class explanations for
// the terminal.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/yacobolo/utilgen"
	"github.com/yacobolo/utilgen/internal/diag"
	"github.com/yacobolo/utilgen/internal/engine"
)

// Reporter handles formatting and outputting build results
type Reporter struct {
	w         io.Writer
	useColors bool
	verbose   bool
}

// NewReporter creates a new reporter writing to w
func NewReporter(w io.Writer, useColors, verbose bool) *Reporter {
	return &Reporter{w: w, useColors: useColors, verbose: verbose}
}

// UseColors returns whether colors are enabled
func (r *Reporter) UseColors() bool {
	return r.useColors
}

// PrintResult prints the diagnostics and the one-line summary of a build.
func (r *Reporter) PrintResult(res *utilgen.Result) {
	r.PrintDiagnostics(res.Diagnostics)
	r.PrintSummary(res)
}

// PrintDiagnostics outputs one line per diagnostic
func (r *Reporter) PrintDiagnostics(list diag.List) {
	for _, d := range list {
		style := StyleGray
		switch d.Severity {
		case diag.SeverityError:
			style = StyleRed
		case diag.SeverityWarning:
			style = StyleYellow
		}
		fmt.Fprintf(r.w, "%s %s%s\n",
			RenderStyle(style, string(d.Severity)+":", r.useColors),
			d.Message,
			RenderStyle(StyleGray, " ["+d.Code+"]", r.useColors))
	}
}

// PrintSummary outputs what the build produced
func (r *Reporter) PrintSummary(res *utilgen.Result) {
	counts := fmt.Sprintf("%s, %s, %s",
		pluralizeCount(res.Stats.Classes, "class", "classes"),
		pluralizeCount(res.Stats.Rules, "rule", "rules"),
		formatBytes(res.Stats.Bytes))

	switch {
	case res.OutputPath == "":
		fmt.Fprintf(r.w, "%s %s (not written)\n", RenderStyle(StyleGreen, "✓", r.useColors), counts)
	case res.OutputPath == utilgen.Stdout:
		// the stylesheet itself went to stdout
	case res.Written:
		fmt.Fprintf(r.w, "%s Generated %s: %s in %s\n",
			RenderStyle(StyleGreen, "✓", r.useColors),
			RenderStyle(StyleCyan, res.OutputPath, r.useColors),
			counts,
			res.Stats.Duration.Round(time.Millisecond))
	default:
		fmt.Fprintf(r.w, "%s %s is up to date: %s\n",
			RenderStyle(StyleGreen, "✓", r.useColors),
			RenderStyle(StyleCyan, res.OutputPath, r.useColors),
			counts)
	}

	if r.verbose {
		fmt.Fprintf(r.w, "  Files scanned: %d (%d from cache, %d skipped)\n",
			res.Stats.FilesScanned, res.Stats.CacheHits, res.Stats.FilesSkipped)
		fmt.Fprintf(r.w, "  Candidates: %d (%d not classes)\n", res.Stats.Candidates, len(res.Unresolved))
		for _, p := range res.Plugins {
			fmt.Fprintf(r.w, "  Plugin: %s %s\n", p.Name, RenderStyle(StyleGray, "("+p.Source+")", r.useColors))
		}
	}

	if n := res.Diagnostics.Count(diag.SeverityError); n > 0 {
		fmt.Fprintln(r.w, RenderStyle(StyleRed, pluralizeCount(n, "error", "errors"), r.useColors))
	}
	if n := res.Diagnostics.Count(diag.SeverityWarning); n > 0 {
		fmt.Fprintln(r.w, RenderStyle(StyleYellow, pluralizeCount(n, "warning", "warnings"), r.useColors))
	}
}

// PrintWaiting outputs the idle line between watch builds.
func (r *Reporter) PrintWaiting(now time.Time) {
	fmt.Fprintln(r.w, RenderStyle(StyleGray, "["+now.Format("15:04:05")+"] waiting for changes...", r.useColors))
}

// PrintError outputs a fatal error. Descriptor errors with a position show
// the offending source line.
func (r *Reporter) PrintError(err error) {
	var de *utilgen.DescriptorError
	if errors.As(err, &de) && de.Line > 0 {
		location := fmt.Sprintf("%s:%d:", de.File, de.Line)
		if de.Column > 0 {
			location = fmt.Sprintf("%s:%d:%d:", de.File, de.Line, de.Column)
		}
		msg := de.Msg
		if de.Field != "" {
			msg = de.Field + ": " + msg
		}
		fmt.Fprintf(r.w, "%s %s %s\n",
			RenderStyle(StyleRed, "error:", r.useColors),
			RenderStyle(StyleCyan, location, r.useColors),
			msg)
		if line, ok := sourceLine(de.File, de.Line); ok {
			fmt.Fprintf(r.w, "\t%s\n", line)
			fmt.Fprintf(r.w, "\t%s\n", RenderStyle(StyleYellow, r.buildCaretIndicator(line, de.Column), r.useColors))
		}
		return
	}
	fmt.Fprintf(r.w, "%s %v\n", RenderStyle(StyleRed, "error:", r.useColors), err)
}

func sourceLine(path string, line int) (string, bool) {
	// #nosec G304 - path comes from the descriptor error
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	lines := strings.Split(string(data), "\n")
	if line < 1 || line > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line-1], "\r"), true
}

// buildCaretIndicator creates the "^" indicator aligned with the column.
// Tabs in the prefix are kept so the caret lines up.
func (r *Reporter) buildCaretIndicator(sourceLine string, column int) string {
	if column <= 0 {
		return "^"
	}

	prefixLen := column - 1
	if prefixLen > len(sourceLine) {
		prefixLen = len(sourceLine)
	}

	var padding strings.Builder
	for _, ch := range sourceLine[:prefixLen] {
		if ch == '\t' {
			padding.WriteRune('\t')
		} else {
			padding.WriteString(strings.Repeat(" ", runewidth.RuneWidth(ch)))
		}
	}
	return padding.String() + "^"
}

// PrintExplain outputs the rules a class generates with declarations
// grouped by category.
func (r *Reporter) PrintExplain(class string, rules []engine.Rule) {
	fmt.Fprintf(r.w, "%s %s\n", RenderStyle(StyleCyan, class, r.useColors),
		RenderStyle(StyleGray, "("+pluralizeCount(len(rules), "rule", "rules")+")", r.useColors))

	width := 0
	for _, rule := range rules {
		for _, d := range rule.Decls {
			width = max(width, runewidth.StringWidth(d.Prop))
		}
	}
	catWidth := 0
	for _, c := range categoryOrder {
		catWidth = max(catWidth, runewidth.StringWidth(string(c)))
	}

	for _, rule := range rules {
		fmt.Fprintln(r.w)
		for _, at := range rule.AtRules {
			fmt.Fprintf(r.w, "  %s\n", RenderStyle(StyleGray, at, r.useColors))
		}
		fmt.Fprintf(r.w, "  %s %s\n", rule.Selector, RenderStyle(StyleGray, "["+string(rule.Layer)+"]", r.useColors))
		for _, g := range groupDecls(rule.Decls) {
			for i, d := range g.Decls {
				label := ""
				if i == 0 {
					label = string(g.Category)
				}
				fmt.Fprintf(r.w, "    %s  %s  %s\n",
					RenderStyle(StyleGray, runewidth.FillRight(label, catWidth), r.useColors),
					runewidth.FillRight(d.Prop, width),
					d.Value)
			}
		}
	}
}

// pluralizeCount returns a formatted string with count and singular/plural form
func pluralizeCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

func formatBytes(n int) string {
	if n < 1024 {
		return pluralizeCount(n, "byte", "bytes")
	}
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}

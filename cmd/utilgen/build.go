package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/yacobolo/utilgen"
	"github.com/yacobolo/utilgen/internal/report"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate the stylesheet",
	Long: `Scan the content files named by the descriptor and write a stylesheet
with the referenced utilities and the safelist. The output is only rewritten
when it changes.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runBuild,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the stylesheet when files change",
	Long: `Build once, then rebuild whenever the descriptor, the input stylesheet
or a content file changes. Stops on interrupt.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWatch(cmd)
	},
}

func init() {
	addBuildFlags(buildCmd, true)
	addBuildFlags(watchCmd, false)
}

func addBuildFlags(cmd *cobra.Command, withWatch bool) {
	f := cmd.Flags()
	f.StringP("input", "i", "", "Input stylesheet (default: @tailwind base, components and utilities)")
	f.StringP("output", "o", utilgen.Stdout, `Output file ("-" for stdout)`)
	f.BoolP("minify", "m", false, "Minify the generated layers")
	f.Bool("strict", false, "Fail when any warning is reported")
	f.String("report", "text", "Report format: text|json|quiet")
	f.Duration("debounce", utilgen.DefaultDebounce, "Delay before rebuilding after a change")
	if withWatch {
		f.BoolP("watch", "w", false, "Rebuild when files change")
	}
}

func runBuild(cmd *cobra.Command, _ []string) error {
	if getBool("build.watch", false) {
		return runWatch(cmd)
	}

	b, p, err := newBuilder(cmd)
	if err != nil {
		return err
	}
	res, err := b.Build(cmd.Context())
	if res != nil {
		if perr := p.result(res); perr != nil {
			return perr
		}
	}
	return err
}

func runWatch(cmd *cobra.Command) error {
	b, p, err := newBuilder(cmd)
	if err != nil {
		return err
	}
	return b.Watch(cmd.Context(), debounce(), p.watchBuild)
}

func newBuilder(cmd *cobra.Command) (*utilgen.Builder, *printer, error) {
	config := buildConfig(buildLogger())
	config.Stdout = cmd.OutOrStdout()

	b, err := utilgen.NewBuilder(config)
	if err != nil {
		return nil, nil, err
	}
	return b, newPrinter(cmd, config), nil
}

// printer sends build reports where they do not mix with the stylesheet.
// Text reports always go to stderr; JSON goes to stdout unless the
// stylesheet does.
type printer struct {
	format utilgen.OutputFormat
	text   *report.Reporter
	json   io.Writer
}

func newPrinter(cmd *cobra.Command, config utilgen.Config) *printer {
	errW := cmd.ErrOrStderr()
	jsonW := cmd.OutOrStdout()
	if config.OutputPath == utilgen.Stdout {
		jsonW = errW
	}
	useColors := report.ShouldUseColors(getBool("color", false), errW)
	return &printer{
		format: reportFormat(),
		text:   report.NewReporter(errW, useColors, getBool("verbose", false)),
		json:   jsonW,
	}
}

func (p *printer) result(res *utilgen.Result) error {
	switch p.format {
	case utilgen.OutputJSON:
		return utilgen.WriteJSON(p.json, res)
	case utilgen.OutputText:
		p.text.PrintResult(res)
	}
	return nil
}

// watchBuild reports one build in watch mode. Errors are printed and the
// watcher keeps going.
func (p *printer) watchBuild(res *utilgen.Result, err error) {
	if res != nil {
		_ = p.result(res)
	}
	if err != nil && p.format != utilgen.OutputQuiet {
		p.text.PrintError(err)
	}
	if err == nil && p.format == utilgen.OutputText {
		p.text.PrintWaiting(time.Now())
	}
}

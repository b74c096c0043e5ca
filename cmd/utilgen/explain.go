package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yacobolo/utilgen"
	"github.com/yacobolo/utilgen/internal/engine"
	"github.com/yacobolo/utilgen/internal/report"
)

var explainCmd = &cobra.Command{
	Use:   "explain <class>...",
	Short: "Show the CSS a class generates",
	Long: `Resolve classes against the descriptor, its plugins and the input
stylesheet, and print the rules each one generates.`,
	Example: `  utilgen explain p-4 md:hover:bg-red-500 dark:text-white`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runExplain,
}

func init() {
	f := explainCmd.Flags()
	f.StringP("input", "i", "", "Input stylesheet with custom classes")
	f.String("report", "text", "Report format: text|json")
}

type explained struct {
	Class string        `json:"class"`
	Rules []engine.Rule `json:"rules"`
	CSS   string        `json:"css"`
}

func runExplain(cmd *cobra.Command, args []string) error {
	config := buildConfig(buildLogger())
	config.OutputPath = ""

	b, err := utilgen.NewBuilder(config)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	format := reportFormat()
	r := report.NewReporter(out, report.ShouldUseColors(getBool("color", false), out), false)

	var (
		results []explained
		unknown []string
	)
	for i, class := range args {
		rules, err := b.Explain(class)
		if errors.Is(err, engine.ErrUnknownClass) {
			unknown = append(unknown, class)
			continue
		}
		if err != nil {
			return err
		}
		results = append(results, explained{Class: class, Rules: rules, CSS: engine.Render(rules, false)})
		if format == utilgen.OutputText {
			if i > 0 {
				fmt.Fprintln(out)
			}
			r.PrintExplain(class, rules)
		}
	}

	if format == utilgen.OutputJSON {
		if results == nil {
			results = []explained{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return fmt.Errorf("encode explain output: %w", err)
		}
	}

	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s", engine.ErrUnknownClass, strings.Join(unknown, ", "))
	}
	return nil
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/yacobolo/utilgen"
	"github.com/yacobolo/utilgen/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve utilgen tools over MCP (stdio)",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing
generate_stylesheet, explain_class and list_theme. Logs go to stderr.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		logger := buildLogger()
		config := buildConfig(logger)
		config.OutputPath = ""

		b, err := utilgen.NewBuilder(config)
		if err != nil {
			return err
		}
		return mcpserver.NewServer(b, version, logger).ServeStdio()
	},
}

func init() {
	mcpCmd.Flags().StringP("input", "i", "", "Input stylesheet with custom classes")
}

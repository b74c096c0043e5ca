package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const starterDescriptorFile = "tailwind.config.js"

type starterFile struct {
	name    string
	content string
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default .utilgen.yaml settings file",
	Long: `Create a .utilgen.yaml settings file in the current directory with sensible
defaults. With --descriptor, also create a starter tailwind.config.js.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")
		withDescriptor, _ := cmd.Flags().GetBool("descriptor")

		files := []starterFile{{defaultSettingsFile, defaultSettings}}
		if withDescriptor {
			files = append(files, starterFile{starterDescriptorFile, starterDescriptor})
		}

		for _, f := range files {
			if _, err := os.Stat(f.name); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", f.name)
			}
		}
		for _, f := range files {
			if err := os.WriteFile(f.name, []byte(f.content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", f.name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", f.name)
		}
		return nil
	},
}

const defaultSettings = `# utilgen settings
# Flags override environment variables (UTILGEN_*), which override this file.

# Descriptor path; empty searches the working directory for
# tailwind.config.{js,cjs,mjs,ts} or utilgen.config.{yaml,yml,json,toml}
config: ""
verbose: false
color: false

log:
  format: text       # text | json

build:
  input: ""          # empty uses @tailwind base, components and utilities
  output: dist/utilgen.css
  minify: false
  strict: false      # fail on any warning
  report: text       # text | json | quiet

watch:
  debounce: 100ms
`

const starterDescriptor = `/** @type {import('tailwindcss').Config} */
module.exports = {
  mode: 'jit',
  darkMode: 'class',
  content: ['./src/**/*.{html,js,ts,vue}'],
  theme: {
    extend: {}
  },
  safelist: [],
  plugins: []
};
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing files")
	initCmd.Flags().Bool("descriptor", false, "Also create a starter "+starterDescriptorFile)
}

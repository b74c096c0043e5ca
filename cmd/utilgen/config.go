package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/yacobolo/utilgen"
	"github.com/yacobolo/utilgen/internal/logging"
)

const defaultSettingsFile = ".utilgen.yaml"

var k = koanf.New(".")

// flagKeys maps flag names onto their settings keys. Flags not listed use
// their own name.
var flagKeys = map[string]string{
	"input":      "build.input",
	"output":     "build.output",
	"minify":     "build.minify",
	"strict":     "build.strict",
	"report":     "build.report",
	"watch":      "build.watch",
	"debounce":   "watch.debounce",
	"log-format": "log.format",
}

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	settingsPath, _ := cmd.Flags().GetString("settings")
	if settingsPath == "" {
		settingsPath = defaultSettingsFile
	}

	if err := loadConfigFromPath(settingsPath); err != nil {
		return err
	}

	// Unchanged flags only fill keys that nothing else set
	if err := k.Load(posflag.ProviderWithValue(cmd.Flags(), ".", k, flagKey), nil); err != nil {
		return fmt.Errorf("loading command flags: %w", err)
	}

	return nil
}

func flagKey(name, value string) (string, any) {
	if key, ok := flagKeys[name]; ok {
		return key, value
	}
	return name, value
}

// loadConfigFromPath loads the settings file and environment variables.
// This is separated from loadConfig to allow testing without a cobra command.
func loadConfigFromPath(settingsPath string) error {
	// 1. Settings file (lowest precedence among providers)
	if _, err := os.Stat(settingsPath); err == nil {
		if err := k.Load(file.Provider(settingsPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading settings file %s: %w", settingsPath, err)
		}
	}

	// 2. Environment variables (UTILGEN_* prefix)
	if err := k.Load(env.Provider("UTILGEN_", ".", func(s string) string {
		// UTILGEN_BUILD_OUTPUT -> build.output
		// UTILGEN_WATCH_DEBOUNCE -> watch.debounce
		// UTILGEN_VERBOSE -> verbose
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "UTILGEN_")),
			"_", ".",
		)
	}), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	return nil
}

// buildConfig constructs the library's Config struct from koanf state.
func buildConfig(logger *slog.Logger) utilgen.Config {
	return utilgen.Config{
		DescriptorPath: getString("config", ""),
		InputPath:      getString("build.input", ""),
		OutputPath:     getString("build.output", utilgen.Stdout),
		Minify:         getBool("build.minify", false),
		Strict:         getBool("build.strict", false),
		Logger:         logger,
	}
}

// buildLogger creates the diagnostic logger from koanf state.
func buildLogger() *slog.Logger {
	return logging.New(logging.Config{
		Verbose: getBool("verbose", false),
		Format:  logging.Format(getString("log.format", string(logging.FormatText))),
	})
}

func reportFormat() utilgen.OutputFormat {
	return utilgen.DetermineOutputFormat(getString("build.report", ""), getBool("quiet", false))
}

func debounce() time.Duration {
	if d := k.Duration("watch.debounce"); d > 0 {
		return d
	}
	return utilgen.DefaultDebounce
}

// getString returns the value at key, or the default when it is unset or empty.
func getString(key, defaultVal string) string {
	if v := k.String(key); v != "" {
		return v
	}
	return defaultVal
}

// getBool returns the value at key, or the default when it is unset.
func getBool(key string, defaultVal bool) bool {
	if k.Exists(key) {
		return k.Bool(key)
	}
	return defaultVal
}

// Package main provides the utilgen CLI for generating utility stylesheets.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yacobolo/utilgen/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !getBool("quiet", false) {
			useColors := report.ShouldUseColors(getBool("color", false), os.Stderr)
			report.NewReporter(os.Stderr, useColors, false).PrintError(err)
		}
		os.Exit(1)
	}
}

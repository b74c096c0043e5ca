package utilgen

// OutputFormat selects how a build is reported
type OutputFormat string

// Output formats
const (
	OutputText  OutputFormat = "text"  // human-readable summary and diagnostics
	OutputJSON  OutputFormat = "json"  // machine-readable summary
	OutputQuiet OutputFormat = "quiet" // nothing; exit code only
)

// DetermineOutputFormat selects the output format from flags.
func DetermineOutputFormat(formatFlag string, quiet bool) OutputFormat {
	// Explicit --quiet flag wins
	if quiet {
		return OutputQuiet
	}

	switch formatFlag {
	case "json":
		return OutputJSON
	case "quiet", "none":
		return OutputQuiet
	case "text", "":
		return OutputText
	default:
		// Invalid format, fall back to the default
		return OutputText
	}
}

package utilgen

import (
	"encoding/json"
	"io"

	"github.com/yacobolo/utilgen/internal/diag"
	"github.com/yacobolo/utilgen/internal/plugin"
)

// JSONOutput represents the structured JSON export schema
type JSONOutput struct {
	Version     string          `json:"version"`
	Descriptor  string          `json:"descriptor"`
	Summary     JSONSummary     `json:"summary"`
	Stats       Stats           `json:"stats"`
	Diagnostics diag.List       `json:"diagnostics"`
	Classes     []string        `json:"classes"`
	Unresolved  int             `json:"unresolved"`
	Plugins     []plugin.Loaded `json:"plugins"`
}

// JSONSummary contains high-level counts
type JSONSummary struct {
	Output   string `json:"output,omitempty"`
	Written  bool   `json:"written"`
	Classes  int    `json:"classes"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
	Bytes    int    `json:"bytes"`
}

// WriteJSON writes the build result as indented JSON.
func WriteJSON(w io.Writer, result *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildJSONOutput(result))
}

func buildJSONOutput(result *Result) JSONOutput {
	out := JSONOutput{
		Version: "1.0",
		Summary: JSONSummary{
			Output:   result.OutputPath,
			Written:  result.Written,
			Classes:  len(result.Classes),
			Errors:   result.Diagnostics.Count(diag.SeverityError),
			Warnings: result.Diagnostics.Count(diag.SeverityWarning),
			Bytes:    result.Stats.Bytes,
		},
		Stats:       result.Stats,
		Diagnostics: result.Diagnostics,
		Classes:     result.Classes,
		Unresolved:  len(result.Unresolved),
		Plugins:     result.Plugins,
	}
	if result.Descriptor != nil {
		out.Descriptor = result.Descriptor.Path
	}
	// Empty lists encode as [] rather than null
	if out.Diagnostics == nil {
		out.Diagnostics = diag.List{}
	}
	if out.Classes == nil {
		out.Classes = []string{}
	}
	if out.Plugins == nil {
		out.Plugins = []plugin.Loaded{}
	}
	return out
}

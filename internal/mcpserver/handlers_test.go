package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/utilgen"
	"github.com/yacobolo/utilgen/internal/logging"
)

// --- helpers ---

const testDescriptor = `content: ["./src/**/*.html"]
safelist: ["hidden"]
theme:
  extend:
    colors:
      brand: "#0f766e"
corePlugins: {preflight: false}
`

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "index.html"),
		[]byte(`<div class="flex p-4 text-brand">`), 0o644))
	path := filepath.Join(dir, "utilgen.config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testDescriptor), 0o644))

	b, err := utilgen.NewBuilder(utilgen.Config{DescriptorPath: path, Logger: logging.Discard()})
	require.NoError(t, err)
	return NewServer(b, "test", logging.Discard()), path
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

	switch req.Params.Name {
	case "generate_stylesheet":
		handler = s.handleGenerateStylesheet
	case "explain_class":
		handler = s.handleExplainClass
	case "list_theme":
		handler = s.handleListTheme
	case "list_variants":
		handler = s.handleListVariants
	default:
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := s.loggingMiddleware()(handler)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

// --- generate_stylesheet ---

func TestHandleGenerateStylesheet(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, makeRequest("generate_stylesheet", nil))
	assert.False(t, result.IsError)

	var resp generateResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, []string{"flex", "hidden", "p-4", "text-brand"}, resp.Classes)
	assert.Equal(t, 1, resp.Stats.FilesScanned)
	assert.Empty(t, resp.Diagnostics)
	assert.Empty(t, resp.CSS, "css is opt-in")
}

func TestHandleGenerateStylesheet_IncludeCSS(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, makeRequest("generate_stylesheet", map[string]any{"include_css": true}))
	assert.False(t, result.IsError)

	var resp generateResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Contains(t, resp.CSS, "color: #0f766e;")
	assert.Contains(t, resp.CSS, "display: none;")
}

func TestHandleGenerateStylesheet_ReloadsDescriptor(t *testing.T) {
	s, path := testServer(t)
	callTool(t, s, makeRequest("generate_stylesheet", nil))

	require.NoError(t, os.WriteFile(path, []byte(`content: ["./src/**/*.html"]
safelist: ["grid"]
corePlugins: {preflight: false}
`), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	result := callTool(t, s, makeRequest("generate_stylesheet", nil))
	var resp generateResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Contains(t, resp.Classes, "grid")
	assert.NotContains(t, resp.Classes, "hidden")
	assert.NotContains(t, resp.Classes, "text-brand", "brand color is gone")
}

func TestHandleGenerateStylesheet_EditBeforeFirstCall(t *testing.T) {
	s, path := testServer(t)
	require.False(t, s.loadedAt.IsZero(), "mtime is recorded when the server is created")

	require.NoError(t, os.WriteFile(path, []byte(`content: ["./src/**/*.html"]
safelist: ["grid"]
corePlugins: {preflight: false}
`), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	result := callTool(t, s, makeRequest("generate_stylesheet", nil))
	var resp generateResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Contains(t, resp.Classes, "grid")
	assert.NotContains(t, resp.Classes, "hidden")
}

func TestHandleGenerateStylesheet_BrokenDescriptor(t *testing.T) {
	s, path := testServer(t)
	require.NoError(t, os.WriteFile(path, []byte("mode: aot\n"), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	result := callTool(t, s, makeRequest("generate_stylesheet", nil))
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "mode")
}

// --- explain_class ---

func TestHandleExplainClass(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, makeRequest("explain_class", map[string]any{"class": "p-4"}))
	assert.False(t, result.IsError)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, "p-4", resp["class"])
	rules := resp["rules"].([]any)
	require.Len(t, rules, 1)
	rule := rules[0].(map[string]any)
	assert.Equal(t, ".p-4", rule["selector"])
	assert.Equal(t, "utilities", rule["layer"])
	assert.Contains(t, resp["css"], "padding: 1rem;")
}

func TestHandleExplainClass_Errors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "missing class", args: nil, want: "class"},
		{name: "unknown class", args: map[string]any{"class": "not-a-utility"}, want: "unknown utility class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testServer(t)
			result := callTool(t, s, makeRequest("explain_class", tt.args))
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

// --- list_theme ---

func TestHandleListTheme_Categories(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, makeRequest("list_theme", nil))
	assert.False(t, result.IsError)

	var cats []categorySummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &cats))
	require.NotEmpty(t, cats)
	found := false
	for _, c := range cats {
		switch c.Name {
		case "colors":
			found = true
			assert.Positive(t, c.Keys)
			assert.Empty(t, c.Parent)
		case "textColor":
			assert.Equal(t, "colors", c.Parent)
		}
	}
	assert.True(t, found, "colors category listed")
}

func TestHandleListTheme_Category(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, makeRequest("list_theme", map[string]any{"category": "colors"}))
	assert.False(t, result.IsError)

	var resp themeResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, "colors", resp.Category)
	assert.Contains(t, resp.Values, themeValueResult{Key: "brand", Value: "#0f766e"})
}

func TestHandleListTheme_UnknownCategory(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, makeRequest("list_theme", map[string]any{"category": "sizes"}))
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), `unknown theme category "sizes"`)
}

// --- list_variants ---

func TestHandleListVariants(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, makeRequest("list_variants", nil))
	assert.False(t, result.IsError)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &names))
	assert.Contains(t, names, "hover")
	assert.Contains(t, names, "md")
	assert.Contains(t, names, "dark")
	assert.IsIncreasing(t, names)
}

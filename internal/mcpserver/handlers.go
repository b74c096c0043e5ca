package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/yacobolo/utilgen"
	"github.com/yacobolo/utilgen/internal/diag"
	"github.com/yacobolo/utilgen/internal/engine"
	"github.com/yacobolo/utilgen/internal/plugin"
	"github.com/yacobolo/utilgen/internal/theme"
)

type generateResponse struct {
	Classes     []string        `json:"classes"`
	Unresolved  int             `json:"unresolved"`
	Stats       utilgen.Stats   `json:"stats"`
	Diagnostics diag.List       `json:"diagnostics"`
	Plugins     []plugin.Loaded `json:"plugins"`
	CSS         string          `json:"css,omitempty"`
}

type explainResponse struct {
	Class string        `json:"class"`
	Rules []engine.Rule `json:"rules"`
	CSS   string        `json:"css"`
}

type categorySummary struct {
	Name   string `json:"name"`
	Keys   int    `json:"keys"`
	Parent string `json:"parent,omitempty"` // category looked up when a key is missing
}

type themeResponse struct {
	Category string             `json:"category"`
	Values   []themeValueResult `json:"values"`
}

type themeValueResult struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	LineHeight string `json:"lineHeight,omitempty"`
}

// refresh reloads the descriptor when its file changed since the last load.
// Callers hold s.mu.
func (s *Server) refresh() error {
	info, err := os.Stat(s.builder.Config().DescriptorPath)
	if err != nil {
		return fmt.Errorf("stat descriptor: %w", err)
	}
	if info.ModTime().Equal(s.loadedAt) {
		return nil
	}
	if err := s.builder.Reload(); err != nil {
		return err
	}
	s.logger.Debug("descriptor reloaded", "path", s.builder.Config().DescriptorPath)
	s.loadedAt = info.ModTime()
	return nil
}

func (s *Server) handleGenerateStylesheet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.builder.Build(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := generateResponse{
		Classes:     res.Classes,
		Unresolved:  len(res.Unresolved),
		Stats:       res.Stats,
		Diagnostics: res.Diagnostics,
		Plugins:     res.Plugins,
	}
	if resp.Classes == nil {
		resp.Classes = []string{}
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = diag.List{}
	}
	if resp.Plugins == nil {
		resp.Plugins = []plugin.Loaded{}
	}
	if req.GetBool("include_css", false) {
		resp.CSS = res.CSS
	}
	return jsonResult(resp)
}

func (s *Server) handleExplainClass(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, err := req.RequireString("class")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rules, err := s.builder.Explain(class)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(explainResponse{Class: class, Rules: rules, CSS: engine.Render(rules, false)})
}

func (s *Server) handleListTheme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	if category != "" && !theme.IsCategory(category) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown theme category %q", category)), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	th, err := s.builder.Theme()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if category == "" {
		var out []categorySummary
		for _, name := range theme.Categories() {
			summary := categorySummary{Name: name, Keys: len(th.Scale(name))}
			summary.Parent, _ = theme.Parent(name)
			out = append(out, summary)
		}
		return jsonResult(out)
	}

	scale := th.Scale(category)
	resp := themeResponse{Category: category, Values: []themeValueResult{}}
	for _, key := range scale.Keys() {
		tok := scale[key]
		resp.Values = append(resp.Values, themeValueResult{Key: key, Value: tok.Value, LineHeight: tok.LineHeight})
	}
	return jsonResult(resp)
}

func (s *Server) handleListVariants(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names, err := s.builder.Variants()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(names)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

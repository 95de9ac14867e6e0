// Package mcp exposes form structuring as Model Context Protocol tools over stdio.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/MeKo-Tech/formscan/internal/pipeline"
	"github.com/MeKo-Tech/formscan/internal/structure"
	"github.com/MeKo-Tech/formscan/internal/tokens"
)

// Tool names.
const (
	ToolStructureForm = "structure_form"
	ToolMapQuestion   = "map_question"
)

// Server represents the MCP server instance
type Server struct {
	pipeline  *pipeline.Pipeline
	mcpServer *server.MCPServer
}

// NewServer registers the form tools on a new MCP server.
func NewServer(name, version string, pl *pipeline.Pipeline) (*Server, error) {
	if pl == nil {
		return nil, errors.New("pipeline cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(false),
	)

	s := &Server{pipeline: pl, mcpServer: mcpServer}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	structureTool := mcp.NewTool(
		ToolStructureForm,
		mcp.WithDescription("Reconstruct the sections and question/answer pairs of a scanned form from its OCR tokens"),
		mcp.WithString("tokens",
			mcp.Description("Token data as JSON ({\"tokens\":[...]}) or hOCR markup"),
		),
		mcp.WithString("tokens_path",
			mcp.Description("Path to a token file, used when tokens is empty"),
		),
		mcp.WithString("image_path",
			mcp.Description("Optional path to the page image (PNG, JPEG, TIFF, BMP or PDF) for checkbox and box detection"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json (default, full envelope), yaml or text"),
		),
	)
	s.mcpServer.AddTool(structureTool, s.handleStructureForm)

	mapTool := mcp.NewTool(
		ToolMapQuestion,
		mcp.WithDescription("Map a raw question label to its canonical key using the configured schema"),
		mcp.WithString("label",
			mcp.Required(),
			mcp.Description("Question text as printed on the form"),
		),
	)
	s.mcpServer.AddTool(mapTool, s.handleMapQuestion)
}

func (s *Server) handleStructureForm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	inline, _ := args["tokens"].(string)
	tokensPath, _ := args["tokens_path"].(string)
	imagePath, _ := args["image_path"].(string)
	format, _ := args["format"].(string)

	if inline == "" && tokensPath == "" && imagePath == "" {
		return mcp.NewToolResultError("one of tokens, tokens_path or image_path is required"), nil
	}

	var loadPath string
	if inline == "" {
		loadPath = tokensPath
	}
	in, err := pipeline.LoadInput(loadPath, imagePath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if inline != "" {
		toks, err := tokens.Parse([]byte(inline), tokens.FormatAuto)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid tokens: %v", err)), nil
		}
		in.Tokens = toks
		if in.Source == "" || in.Source == imagePath {
			in.Source = "mcp"
		}
	}

	res, err := s.pipeline.Process(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slog.Debug("Structured form over MCP", "source", in.Source, "fields", res.Form.FieldCount())

	text, err := renderResult(res, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleMapQuestion(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := request.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.pipeline.Mapper.Map(label)), nil
}

func renderResult(res *pipeline.Result, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", structure.FormatJSON:
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		var buf bytes.Buffer
		if err := structure.Render(&buf, res.Form, format); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
}

// Run serves the tools on stdin/stdout until the client disconnects.
func (s *Server) Run(_ context.Context) error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz diagram tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/viewer"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp *server.MCPServer
	svc *viewer.Service
}

// New creates a new MCP server with all Ansuz tools registered.
func New(svc *viewer.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_diagrams",
		mcp.WithDescription("List all diagrams in the library with their layout type and element counts."),
	), s.listDiagrams)

	s.mcp.AddTool(mcp.NewTool("read_spec",
		mcp.WithDescription("Read the raw JSON spec of a diagram. Specs follow the format described "+
			"by the get_spec_contract tool or the ansuz://spec-format resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Diagram id (e.g. gfs-read-path)")),
	), s.readSpec)

	s.mcp.AddTool(mcp.NewTool("render_diagram",
		mcp.WithDescription("Render a diagram to Mermaid text. Optionally apply a named scene, or an "+
			"explicit comma-separated overlay list (scene takes precedence)."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Diagram id")),
		mcp.WithString("scene", mcp.Description("Optional scene id to render")),
		mcp.WithString("overlays", mcp.Description("Optional comma-separated overlay ids, applied in order")),
	), s.renderDiagram)

	s.mcp.AddTool(mcp.NewTool("write_spec",
		mcp.WithDescription("Validate and save a diagram spec JSON file into the library. "+
			"Pass the if_match checksum from a prior read to guard against concurrent edits."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Library-relative path ending in .json")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full spec JSON document")),
		mcp.WithString("if_match", mcp.Description("Optional checksum of the expected current content")),
	), s.writeSpec)

	s.mcp.AddTool(mcp.NewTool("search_content",
		mcp.WithDescription("Full-text search through diagram titles, narratives, and drill/quiz content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchContent)

	s.mcp.AddTool(mcp.NewTool("get_progress",
		mcp.WithDescription("Return the recorded study progress (view count, last step) for a diagram."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Diagram id")),
	), s.getProgress)

	s.mcp.AddTool(mcp.NewTool("get_spec_contract",
		mcp.WithDescription("Returns the canonical Ansuz diagram spec format contract. "+
			"Call this before authoring or editing spec files."),
	), s.getSpecContract)

	// Resource: spec format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://spec-format", "Diagram Spec Contract",
			mcp.WithResourceDescription("Canonical JSON spec format that all diagrams must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSpecFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listDiagrams(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.ListDiagrams(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readSpec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.svc.ReadSource(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) renderDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	scene := ""
	if v, serr := req.RequireString("scene"); serr == nil {
		scene = v
	}

	var res *viewer.RenderResult
	switch {
	case scene != "":
		res, err = s.svc.RenderScene(ctx, id, scene)
	default:
		var overlayIDs []string
		if v, oerr := req.RequireString("overlays"); oerr == nil && v != "" {
			for _, o := range strings.Split(v, ",") {
				if o = strings.TrimSpace(o); o != "" {
					overlayIDs = append(overlayIDs, o)
				}
			}
		}
		res, err = s.svc.RenderOverlays(ctx, id, overlayIDs)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := res.Text
	if len(res.Warnings) > 0 {
		text += "\nwarnings:\n" + strings.Join(res.Warnings, "\n")
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) writeSpec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ifMatch := ""
	if v, merr := req.RequireString("if_match"); merr == nil {
		ifMatch = v
	}

	cs, err := s.svc.SaveSpec(ctx, path, []byte(content), ifMatch)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s (checksum %s)", path, cs)), nil
}

func (s *Server) searchContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Progress(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(p, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSpecContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SpecFormatContract), nil
}

func (s *Server) readSpecFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://spec-format",
			MIMEType: "text/markdown",
			Text:     SpecFormatContract,
		},
	}, nil
}

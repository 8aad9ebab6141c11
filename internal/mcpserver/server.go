// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes cardbeam tools for LLM integration via stdio transport: searching
// the note store, dry-running the push pipeline, and triggering a refresh.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cardbeam/cardbeam/internal/codec"
	"github.com/cardbeam/cardbeam/internal/notestore"
	"github.com/cardbeam/cardbeam/internal/payload"
	"github.com/cardbeam/cardbeam/internal/selector"
)

// Trigger requests an immediate push cycle.
type Trigger interface {
	Trigger()
}

// Server wraps the MCP server with cardbeam tools.
type Server struct {
	mcp     *server.MCPServer
	store   notestore.Store
	trigger Trigger
}

// New creates a new MCP server with all cardbeam tools registered.
// trigger may be nil when no scheduler is running.
func New(store notestore.Store, trigger Trigger) *Server {
	s := &Server{store: store, trigger: trigger}

	s.mcp = server.NewMCPServer(
		"Cardbeam",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search flashcard notes with the store's native query syntax "+
			"(FTS5 MATCH; `deck:NAME` filters by deck)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("preview_payload",
		mcp.WithDescription("Dry-run the push pipeline: select one note for the query, "+
			"build the ordered field payload, and compress it. Returns the field values "+
			"and the compressed blob size without pushing anything."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("fields", mcp.Required(), mcp.Description("Comma-separated visible field names, in display order")),
	), s.previewPayload)

	s.mcp.AddTool(mcp.NewTool("trigger_refresh",
		mcp.WithDescription("Run an immediate out-of-band push cycle for all enabled plugins."),
	), s.triggerRefresh)

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

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.store.Find(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type hit struct {
		ID     int64             `json:"id"`
		Deck   string            `json:"deck"`
		Fields map[string]string `json:"fields"`
	}
	hits := make([]hit, 0, len(notes))
	for _, n := range notes {
		hits = append(hits, hit{ID: n.ID, Deck: n.Deck, Fields: n.Fields})
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) previewPayload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldsArg, err := req.RequireString("fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var visibleFields []string
	for _, f := range strings.Split(fieldsArg, ",") {
		if f = strings.TrimSpace(f); f != "" {
			visibleFields = append(visibleFields, f)
		}
	}
	if len(visibleFields) == 0 {
		return mcp.NewToolResultError("fields must name at least one field"), nil
	}

	note, err := selector.Select(s.store, query, visibleFields)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if note == nil {
		return mcp.NewToolResultText("no matching notes; the plugin would skip this cycle"), nil
	}

	p := payload.Build(note, visibleFields)
	blob, err := codec.Compress(p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(map[string]any{
		"note_id":    note.ID,
		"deck":       note.Deck,
		"values":     []string(p),
		"blob_bytes": len(blob),
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) triggerRefresh(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.trigger == nil {
		return mcp.NewToolResultError("no scheduler is running"), nil
	}
	s.trigger.Trigger()
	return mcp.NewToolResultText("refresh triggered"), nil
}

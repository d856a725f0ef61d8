// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes pit task tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pit/internal/apperr"
	"github.com/starford/pit/internal/taskservice"
)

// ContractURI is the resource URI of the annotation format contract.
const ContractURI = "pit://annotation-format"

// Server wraps the MCP server with pit tools.
type Server struct {
	mcp *server.MCPServer
	svc *taskservice.Service
}

// New creates a new MCP server with all pit tools registered.
func New(svc *taskservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"pit",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the checklist tasks of one Markdown document, freshly extracted, "+
			"with line/column, completion, priority, due and done dates."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. lists/home.md)")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("search_tasks",
		mcp.WithDescription("Search indexed tasks across the vault by text. An empty query lists "+
			"tasks most urgent first."),
		mcp.WithString("query", mcp.Description("Full-text query over task text")),
		mcp.WithBoolean("open", mcp.Description("Only return tasks that are not completed")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of tasks (default 20)")),
	), s.searchTasks)

	s.mcp.AddTool(mcp.NewTool("roll_task",
		mcp.WithDescription("Draw one task at random, weighted so that lower %prio numbers are likelier. "+
			"Tasks without a priority are never drawn."),
		mcp.WithString("path", mcp.Description("Document to draw from (empty for the whole vault)")),
		mcp.WithBoolean("open", mcp.Description("Skip completed tasks")),
	), s.rollTask)

	s.mcp.AddTool(mcp.NewTool("toggle_task",
		mcp.WithDescription("Toggle the completion of the task on a line. Completing stamps a "+
			"%done annotation; un-completing removes it. Read the contract first via "+
			"get_annotation_contract or the "+ContractURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("Zero-based line of the task")),
		mcp.WithString("checksum", mcp.Description("Optional document checksum; the toggle fails if the document changed")),
	), s.toggleTask)

	s.mcp.AddTool(mcp.NewTool("completion_stats",
		mcp.WithDescription("Per-day count of tasks completed over the last week, with a text sparkline."),
		mcp.WithString("path", mcp.Description("Document to count (empty for the whole vault)")),
	), s.completionStats)

	s.mcp.AddTool(mcp.NewTool("get_annotation_contract",
		mcp.WithDescription("Returns the checklist task and %key=value annotation grammar. "+
			"Call this before editing tasks to keep their annotations parseable."),
	), s.getAnnotationContract)

	// Resource: annotation format contract.
	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Task Annotation Contract",
			mcp.WithResourceDescription("Checklist line and inline annotation grammar understood by pit."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
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

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %v", err))
	case errors.Is(err, apperr.ErrNoTask):
		return mcp.NewToolResultError(fmt.Sprintf("no task: %v", err))
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError("document changed since checksum was taken; list tasks again")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.ListTasks(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(doc)
}

func (s *Server) searchTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := taskservice.TaskQuery{
		Query: req.GetString("query", ""),
		Limit: req.GetInt("limit", 20),
	}
	if req.GetBool("open", false) {
		open := false
		q.Completed = &open
	}
	tasks, total, err := s.svc.SearchTasks(ctx, q)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"tasks": tasks, "total": total})
}

func (s *Server) rollTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.RollTask(ctx, req.GetString("path", ""), taskservice.RollOptions{
		OpenOnly: req.GetBool("open", false),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(v)
}

func (s *Server) toggleTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := req.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ToggleTask(ctx, taskservice.ToggleRequest{
		Path:     path,
		Line:     line,
		Checksum: req.GetString("checksum", ""),
	})
	if err != nil {
		return toolError(err), nil
	}
	if res.Queued {
		return mcp.NewToolResultText(fmt.Sprintf("queued: %s line %d will be toggled once the previous toggle settles", path, line)), nil
	}
	return jsonResult(res)
}

func (s *Server) completionStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.svc.Stats(ctx, req.GetString("path", ""))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(st)
}

func (s *Server) getAnnotationContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(AnnotationContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     AnnotationContract,
		},
	}, nil
}

// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes stash tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/stash/internal/apperr"
	"github.com/starford/stash/internal/models"
	"github.com/starford/stash/internal/stash"
	"github.com/starford/stash/internal/stashservice"
)

const guideURI = "stash://guide"

// Server wraps the MCP server with stash tools.
type Server struct {
	mcp *server.MCPServer
	svc *stashservice.Service
}

// New creates a new MCP server with all stash tools registered.
func New(svc *stashservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Stash",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Read "+guideURI+" before creating or deleting anything."),
	)

	s.mcp.AddTool(mcp.NewTool("list_folder",
		mcp.WithDescription("List the subfolders and files of a folder. Omit folderId for the root."),
		mcp.WithString("folderId", mcp.Description("Folder id; empty for root")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.listFolder)

	s.mcp.AddTool(mcp.NewTool("folder_path",
		mcp.WithDescription("Return the breadcrumb (root first) of a folder."),
		mcp.WithString("folderId", mcp.Required(), mcp.Description("Folder id")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.folderPath)

	s.mcp.AddTool(mcp.NewTool("create_folder",
		mcp.WithDescription("Create a folder. Omit parentId to create it at the root."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Folder name")),
		mcp.WithString("parentId", mcp.Description("Parent folder id")),
	), s.createFolder)

	s.mcp.AddTool(mcp.NewTool("create_file",
		mcp.WithDescription("Create a file record. See "+guideURI+" for the meaning of each type."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name")),
		mcp.WithString("type", mcp.Required(), mcp.Enum(fileTypeNames()...), mcp.Description("File type")),
		mcp.WithString("content", mcp.Description("Text, URL or description")),
		mcp.WithString("folderId", mcp.Description("Folder id; empty for root")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Tags")),
		mcp.WithBoolean("locked", mcp.Description("Protect the content with a password")),
		mcp.WithString("password", mcp.Description("Password, required when locked is true")),
	), s.createFile)

	s.mcp.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read a file including its content. Locked files need the password."),
		mcp.WithString("fileId", mcp.Required(), mcp.Description("File id")),
		mcp.WithString("password", mcp.Description("Password of a locked file")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.readFile)

	s.mcp.AddTool(mcp.NewTool("search_files",
		mcp.WithDescription("Find files whose name or tags contain the query (case-insensitive)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithString("folderId", mcp.Description("Restrict to one folder; empty searches everywhere")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.searchFiles)

	s.mcp.AddTool(mcp.NewTool("delete_file",
		mcp.WithDescription("Delete an unlocked file."),
		mcp.WithString("fileId", mcp.Required(), mcp.Description("File id")),
		mcp.WithDestructiveHintAnnotation(true),
	), s.deleteFile)

	s.mcp.AddTool(mcp.NewTool("get_guide",
		mcp.WithDescription("Returns the stash usage guide."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.getGuide)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Stash Usage Guide",
			mcp.WithResourceDescription("File types, folder rules and locking rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuideResource,
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

func fileTypeNames() []string {
	out := make([]string, len(models.FileTypes))
	for i, t := range models.FileTypes {
		out[i] = string(t)
	}
	return out
}

// optionalID maps an absent or empty argument to nil (root).
func optionalID(req mcp.CallToolRequest, key string) *string {
	v := strings.TrimSpace(req.GetString(key, ""))
	if v == "" || v == "root" {
		return nil
	}
	return &v
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// errorResult turns domain errors into messages an LLM can act on.
func errorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrPasswordRequired):
		return mcp.NewToolResultError("file is locked: a password is required")
	case errors.Is(err, apperr.ErrInvalidPassword):
		return mcp.NewToolResultError("invalid password")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) listFolder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	l, err := s.svc.List(optionalID(req, "folderId"), "")
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(l), nil
}

func (s *Server) folderPath(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("folderId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := s.svc.FolderPath(&id)
	if len(path) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("folder not found: %s", id)), nil
	}
	names := make([]string, len(path))
	for i, f := range path {
		names[i] = f.Name
	}
	return mcp.NewToolResultText(strings.Join(names, " / ")), nil
}

func (s *Server) createFolder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.svc.CreateFolder(name, optionalID(req, "parentId"))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(f), nil
}

func (s *Server) createFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.svc.CreateFile(stash.NewFile{
		Name:     name,
		Type:     models.FileType(typ),
		Content:  req.GetString("content", ""),
		Tags:     req.GetStringSlice("tags", nil),
		FolderID: optionalID(req, "folderId"),
		Locked:   req.GetBool("locked", false),
		Password: req.GetString("password", ""),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(f), nil
}

func (s *Server) readFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("fileId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.svc.RevealFile(id, req.GetString("password", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(f), nil
}

func (s *Server) searchFiles(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var files []stashservice.FileView
	if folder := optionalID(req, "folderId"); folder != nil {
		files, err = s.svc.ListFiles(folder, query)
		if err != nil {
			return errorResult(err), nil
		}
	} else {
		files = s.svc.Search(query)
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("no files found"), nil
	}
	return jsonResult(files), nil
}

func (s *Server) deleteFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("fileId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteFile(id); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) getGuide(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(UsageGuide), nil
}

func (s *Server) readGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     UsageGuide,
		},
	}, nil
}

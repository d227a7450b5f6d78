// Package mcp exposes the user operations as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/usersoap/internal/debug"
	"github.com/standardbeagle/usersoap/internal/service"
	"github.com/standardbeagle/usersoap/internal/version"
)

// Tool names
const (
	ToolGetAllUsers = "get_all_users"
	ToolGetUser     = "get_user"
	ToolCreateUser  = "create_user"
	ToolUpdateUser  = "update_user"
	ToolDeleteUser  = "delete_user"
)

// Server serves the user tools over MCP
type Server struct {
	svc    *service.Service
	server *mcp.Server
}

// NewServer creates an MCP server backed by svc
func NewServer(svc *service.Service) *Server {
	s := &Server{
		svc: svc,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "usersoap-mcp-server",
			Version: version.Version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Start serves MCP over stdin/stdout until ctx is done or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	debug.LogMCP("starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over transport
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() {
	idSchema := &jsonschema.Schema{
		Type:        "integer",
		Description: "User id",
	}

	s.server.AddTool(&mcp.Tool{
		Name:        ToolGetAllUsers,
		Description: "List every stored user in stored order.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleGetAllUsers)

	s.server.AddTool(&mcp.Tool{
		Name:        ToolGetUser,
		Description: "Get the user with the given id. A missing user is reported in the 'error' field.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"id": idSchema},
			Required:   []string{"id"},
		},
	}, s.handleGetUser)

	s.server.AddTool(&mcp.Tool{
		Name:        ToolCreateUser,
		Description: "Create a user. The id is assigned as one more than the largest existing id. Omitted fields are stored empty.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name":  {Type: "string", Description: "User name"},
				"email": {Type: "string", Description: "User email"},
				"age":   {Type: "integer", Description: "User age"},
			},
		},
	}, s.handleCreateUser)

	s.server.AddTool(&mcp.Tool{
		Name:        ToolUpdateUser,
		Description: "Update the user with the given id. Only the fields supplied are changed.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id":    idSchema,
				"name":  {Type: "string", Description: "New name"},
				"email": {Type: "string", Description: "New email"},
				"age":   {Type: "integer", Description: "New age"},
			},
			Required: []string{"id"},
		},
	}, s.handleUpdateUser)

	s.server.AddTool(&mcp.Tool{
		Name:        ToolDeleteUser,
		Description: "Delete every user with the given id. Succeeds even when no user matches.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"id": idSchema},
			Required:   []string{"id"},
		},
	}, s.handleDeleteUser)
}

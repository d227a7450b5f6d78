package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/usersoap/internal/soap"
)

func (s *Server) handleGetAllUsers(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.svc.GetAllUsers(ctx, soap.GetAllUsersRequest{})
	if err != nil {
		return createErrorResponse(ToolGetAllUsers, err)
	}
	return createJSONResponse(resp)
}

func (s *Server) handleGetUser(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params soap.GetUserRequest
	if err := decodeArguments(req, &params); err != nil {
		return createErrorResponse(ToolGetUser, err)
	}

	resp, err := s.svc.GetUser(ctx, params)
	if err != nil {
		return createErrorResponse(ToolGetUser, err)
	}
	return createJSONResponse(resp)
}

func (s *Server) handleCreateUser(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params soap.CreateUserRequest
	if err := decodeArguments(req, &params); err != nil {
		return createErrorResponse(ToolCreateUser, err)
	}

	resp, err := s.svc.CreateUser(ctx, params)
	if err != nil {
		return createErrorResponse(ToolCreateUser, err)
	}
	return createJSONResponse(resp)
}

func (s *Server) handleUpdateUser(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params soap.UpdateUserRequest
	if err := decodeArguments(req, &params); err != nil {
		return createErrorResponse(ToolUpdateUser, err)
	}

	resp, err := s.svc.UpdateUser(ctx, params)
	if err != nil {
		return createErrorResponse(ToolUpdateUser, err)
	}
	return createJSONResponse(resp)
}

func (s *Server) handleDeleteUser(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params soap.DeleteUserRequest
	if err := decodeArguments(req, &params); err != nil {
		return createErrorResponse(ToolDeleteUser, err)
	}

	resp, err := s.svc.DeleteUser(ctx, params)
	if err != nil {
		return createErrorResponse(ToolDeleteUser, err)
	}
	return createJSONResponse(resp)
}

// decodeArguments unmarshals tool arguments; absent arguments decode as {}
func decodeArguments(req *mcp.CallToolRequest, v any) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

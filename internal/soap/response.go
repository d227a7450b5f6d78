package soap

import (
	"encoding/xml"
	"fmt"

	"github.com/standardbeagle/usersoap/internal/types"
)

// Fixed response texts
const (
	MsgUserNotFound     = "User not found"
	MsgUserUpdated      = "User updated successfully"
	MsgUserDeleted      = "User deleted successfully"
	MsgUnknownOperation = "Unknown operation"
)

// Response is an operation result that renders as a response fragment
type Response interface {
	response()
}

type GetAllUsersResponse struct {
	XMLName xml.Name     `xml:"GetAllUsersResponse" json:"-"`
	Users   []types.User `xml:"User" json:"users"`
}

type GetUserResponse struct {
	XMLName xml.Name    `xml:"GetUserResponse" json:"-"`
	User    *types.User `xml:"User,omitempty" json:"user,omitempty"`
	Error   string      `xml:"error,omitempty" json:"error,omitempty"`
}

type CreateUserResponse struct {
	XMLName xml.Name   `xml:"CreateUserResponse" json:"-"`
	Success bool       `xml:"success" json:"success"`
	User    types.User `xml:"User" json:"user"`
}

type UpdateUserResponse struct {
	XMLName xml.Name    `xml:"UpdateUserResponse" json:"-"`
	Success bool        `xml:"success" json:"success"`
	Message string      `xml:"message,omitempty" json:"message,omitempty"`
	Error   string      `xml:"error,omitempty" json:"error,omitempty"`
	User    *types.User `xml:"User,omitempty" json:"user,omitempty"`
}

type DeleteUserResponse struct {
	XMLName xml.Name `xml:"DeleteUserResponse" json:"-"`
	Success bool     `xml:"success" json:"success"`
	Message string   `xml:"message" json:"message"`
}

// UnknownOperationResponse renders as the generic <Error> fragment
type UnknownOperationResponse struct {
	XMLName xml.Name `xml:"Error" json:"-"`
	Message string   `xml:"message" json:"message"`
}

func (GetAllUsersResponse) response()      {}
func (GetUserResponse) response()          {}
func (CreateUserResponse) response()       {}
func (UpdateUserResponse) response()       {}
func (DeleteUserResponse) response()       {}
func (UnknownOperationResponse) response() {}

// Fragment renders resp as the XML placed inside the envelope body.
// Field values are escaped.
func Fragment(resp Response) (string, error) {
	out, err := xml.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render %T: %w", resp, err)
	}
	return string(out), nil
}

// Package soap speaks the simplified SOAP dialect of the user service:
// it interprets request payloads and renders response envelopes.
package soap

import (
	"github.com/standardbeagle/usersoap/internal/types"
)

// Request is one interpreted inbound operation. The concrete type tells the
// dispatcher which operation to run; absent fields are nil.
type Request interface {
	Operation() types.Operation
}

type GetAllUsersRequest struct{}

type GetUserRequest struct {
	ID *int `json:"id,omitempty" xml:"id,omitempty"`
}

type CreateUserRequest struct {
	Name  *string `json:"name,omitempty" xml:"name,omitempty"`
	Email *string `json:"email,omitempty" xml:"email,omitempty"`
	Age   *int    `json:"age,omitempty" xml:"age,omitempty"`
}

type UpdateUserRequest struct {
	ID    *int    `json:"id,omitempty" xml:"id,omitempty"`
	Name  *string `json:"name,omitempty" xml:"name,omitempty"`
	Email *string `json:"email,omitempty" xml:"email,omitempty"`
	Age   *int    `json:"age,omitempty" xml:"age,omitempty"`
}

type DeleteUserRequest struct {
	ID *int `json:"id,omitempty" xml:"id,omitempty"`
}

// UnknownRequest is produced when the payload names no operation (Name is
// empty) or one the service does not implement
type UnknownRequest struct {
	Name string `json:"name,omitempty" xml:"-"`
}

func (GetAllUsersRequest) Operation() types.Operation { return types.OpGetAllUsers }
func (GetUserRequest) Operation() types.Operation     { return types.OpGetUser }
func (CreateUserRequest) Operation() types.Operation  { return types.OpCreateUser }
func (UpdateUserRequest) Operation() types.Operation  { return types.OpUpdateUser }
func (DeleteUserRequest) Operation() types.Operation  { return types.OpDeleteUser }
func (r UnknownRequest) Operation() types.Operation   { return types.Operation(r.Name) }

// Params is the flat field set found in a payload
type Params struct {
	ID    *int
	Name  *string
	Email *string
	Age   *int
}

// NewRequest builds the typed request for op from params. Fields the
// operation does not take are dropped.
func NewRequest(op types.Operation, p Params) Request {
	switch op {
	case types.OpGetAllUsers:
		return GetAllUsersRequest{}
	case types.OpGetUser:
		return GetUserRequest{ID: p.ID}
	case types.OpCreateUser:
		return CreateUserRequest{Name: p.Name, Email: p.Email, Age: p.Age}
	case types.OpUpdateUser:
		return UpdateUserRequest{ID: p.ID, Name: p.Name, Email: p.Email, Age: p.Age}
	case types.OpDeleteUser:
		return DeleteUserRequest{ID: p.ID}
	default:
		return UnknownRequest{Name: string(op)}
	}
}

// Int and String return pointers for building requests in code
func Int(v int) *int          { return &v }
func String(v string) *string { return &v }

// Package service dispatches interpreted requests to the five user
// operations. Each operation is one full read-modify-write cycle against the
// store, serialized by a single lock so concurrent requests cannot lose
// updates or hand out the same id twice.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/standardbeagle/usersoap/internal/debug"
	"github.com/standardbeagle/usersoap/internal/soap"
	"github.com/standardbeagle/usersoap/internal/store"
	"github.com/standardbeagle/usersoap/internal/types"
)

// Service runs user operations against a store
type Service struct {
	store store.Store
	mu    sync.Mutex
	obs   observability
}

// New creates a service over st. Without options nothing is logged, traced
// or measured.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store
func (s *Service) Store() store.Store {
	return s.store
}

// Dispatch runs the operation req names. Domain failures (unknown
// operation, missing user) are part of the response; the error is non-nil
// only when the store fails.
func (s *Service) Dispatch(ctx context.Context, req soap.Request) (soap.Response, error) {
	switch r := req.(type) {
	case soap.GetAllUsersRequest:
		return s.GetAllUsers(ctx, r)
	case soap.GetUserRequest:
		return s.GetUser(ctx, r)
	case soap.CreateUserRequest:
		return s.CreateUser(ctx, r)
	case soap.UpdateUserRequest:
		return s.UpdateUser(ctx, r)
	case soap.DeleteUserRequest:
		return s.DeleteUser(ctx, r)
	default:
		s.unknownOperation(ctx, req.Operation())
		return soap.UnknownOperationResponse{Message: soap.MsgUnknownOperation}, nil
	}
}

// GetAllUsers returns every user in stored order
func (s *Service) GetAllUsers(ctx context.Context, _ soap.GetAllUsersRequest) (soap.GetAllUsersResponse, error) {
	var resp soap.GetAllUsersResponse
	err := s.run(ctx, types.OpGetAllUsers, func(ctx context.Context) error {
		users, err := s.store.Load(ctx)
		if err != nil {
			return err
		}
		resp.Users = users
		return nil
	})
	return resp, err
}

// GetUser returns the first user with the requested id
func (s *Service) GetUser(ctx context.Context, req soap.GetUserRequest) (soap.GetUserResponse, error) {
	var resp soap.GetUserResponse
	err := s.run(ctx, types.OpGetUser, func(ctx context.Context) error {
		users, err := s.store.Load(ctx)
		if err != nil {
			return err
		}
		if i := indexOf(users, req.ID); i >= 0 {
			u := users[i]
			resp.User = &u
			return nil
		}
		resp.Error = soap.MsgUserNotFound
		return nil
	})
	return resp, err
}

// CreateUser appends a user with the next free id. Absent fields are
// stored as zero values.
func (s *Service) CreateUser(ctx context.Context, req soap.CreateUserRequest) (soap.CreateUserResponse, error) {
	var resp soap.CreateUserResponse
	err := s.run(ctx, types.OpCreateUser, func(ctx context.Context) error {
		users, err := s.store.Load(ctx)
		if err != nil {
			return err
		}

		u := types.User{ID: types.NextID(users)}
		applyFields(&u, req.Name, req.Email, req.Age)
		if err := s.store.Save(ctx, append(users, u)); err != nil {
			return err
		}

		debug.LogDispatch("created user %d", u.ID)
		resp.Success = true
		resp.User = u
		return nil
	})
	return resp, err
}

// UpdateUser overwrites the supplied fields of the first user with the
// requested id
func (s *Service) UpdateUser(ctx context.Context, req soap.UpdateUserRequest) (soap.UpdateUserResponse, error) {
	var resp soap.UpdateUserResponse
	err := s.run(ctx, types.OpUpdateUser, func(ctx context.Context) error {
		users, err := s.store.Load(ctx)
		if err != nil {
			return err
		}

		i := indexOf(users, req.ID)
		if i < 0 {
			resp.Error = soap.MsgUserNotFound
			return nil
		}

		applyFields(&users[i], req.Name, req.Email, req.Age)
		if err := s.store.Save(ctx, users); err != nil {
			return err
		}

		u := users[i]
		resp.Success = true
		resp.Message = soap.MsgUserUpdated
		resp.User = &u
		return nil
	})
	return resp, err
}

// DeleteUser removes every user with the requested id. The collection is
// rewritten and success reported even when nothing matched.
func (s *Service) DeleteUser(ctx context.Context, req soap.DeleteUserRequest) (soap.DeleteUserResponse, error) {
	var resp soap.DeleteUserResponse
	err := s.run(ctx, types.OpDeleteUser, func(ctx context.Context) error {
		users, err := s.store.Load(ctx)
		if err != nil {
			return err
		}

		kept := users[:0]
		for _, u := range users {
			if req.ID == nil || u.ID != *req.ID {
				kept = append(kept, u)
			}
		}
		if len(kept) == len(users) {
			debug.LogDispatch("delete matched no user")
		}

		if err := s.store.Save(ctx, kept); err != nil {
			return err
		}
		resp.Success = true
		resp.Message = soap.MsgUserDeleted
		return nil
	})
	return resp, err
}

// Stats describes the current collection
type Stats struct {
	UserCount int
	Backend   string
	Revision  string
}

// Stats loads the collection and reports its size and revision
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.store.Load(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{UserCount: len(users), Backend: s.store.Backend()}
	if fp, ok := s.store.(store.Fingerprinter); ok {
		stats.Revision = fp.Revision()
	}
	return stats, nil
}

// run executes one operation under the store lock with tracing, metrics
// and logging
func (s *Service) run(ctx context.Context, op types.Operation, fn func(context.Context) error) error {
	ctx, span := s.startSpan(ctx, op)
	defer span.End()

	start := time.Now()
	s.mu.Lock()
	err := fn(ctx)
	s.mu.Unlock()
	duration := time.Since(start)

	if err != nil {
		span.fail(err)
	}
	s.recordMetrics(ctx, op, duration, err)
	s.logOperation(ctx, op, duration, err)
	return err
}

func (s *Service) unknownOperation(ctx context.Context, op types.Operation) {
	if s.obs.logger == nil {
		return
	}
	if op == "" {
		s.obs.logger.InfoContext(ctx, "request names no operation")
		return
	}
	if suggestion, ok := soap.Suggest(op.String()); ok {
		s.obs.logger.InfoContext(ctx, "unknown operation", "operation", op.String(), "suggestion", suggestion.String())
		return
	}
	s.obs.logger.InfoContext(ctx, "unknown operation", "operation", op.String())
}

// indexOf returns the position of the first user with id, or -1. A nil id
// matches nothing.
func indexOf(users []types.User, id *int) int {
	if id == nil {
		return -1
	}
	for i, u := range users {
		if u.ID == *id {
			return i
		}
	}
	return -1
}

func applyFields(u *types.User, name, email *string, age *int) {
	if name != nil {
		u.Name = *name
	}
	if email != nil {
		u.Email = *email
	}
	if age != nil {
		u.Age = *age
	}
}

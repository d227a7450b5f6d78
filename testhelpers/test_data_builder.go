package testhelpers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/usersoap/internal/types"
)

// UserDataBuilder builds user collections for tests without shared state
type UserDataBuilder struct {
	users []types.User
}

// NewUserDataBuilder creates an empty builder
func NewUserDataBuilder() *UserDataBuilder {
	return &UserDataBuilder{users: make([]types.User, 0)}
}

// AddUser appends a user with the next free id
func (b *UserDataBuilder) AddUser(name, email string, age int) *UserDataBuilder {
	b.users = append(b.users, types.User{
		ID:    types.NextID(b.users),
		Name:  name,
		Email: email,
		Age:   age,
	})
	return b
}

// AddRecord appends u as given, including duplicate or out of order ids
func (b *UserDataBuilder) AddRecord(u types.User) *UserDataBuilder {
	b.users = append(b.users, u)
	return b
}

// Users returns a copy of the built collection
func (b *UserDataBuilder) Users() []types.User {
	return types.CloneUsers(b.users)
}

// WriteFile writes the collection as a JSON array to dir/users.json and
// returns the path
func (b *UserDataBuilder) WriteFile(t *testing.T, dir string) string {
	t.Helper()

	data, err := json.MarshalIndent(b.users, "", "  ")
	require.NoError(t, err)

	path := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

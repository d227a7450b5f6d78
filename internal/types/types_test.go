package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextID(t *testing.T) {
	tests := []struct {
		name  string
		users []User
		want  int
	}{
		{"empty collection", nil, 1},
		{"single user", []User{{ID: 1}}, 2},
		{"gap in ids", []User{{ID: 1}, {ID: 7}, {ID: 3}}, 8},
		{"unordered", []User{{ID: 5}, {ID: 2}}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextID(tt.users))
		})
	}
}

func TestOperationKnown(t *testing.T) {
	for _, op := range Operations {
		assert.True(t, op.Known(), "%s should be known", op)
	}
	assert.False(t, Operation("ListUsers").Known())
	assert.False(t, Operation("").Known())
}

func TestCloneUsers(t *testing.T) {
	original := []User{{ID: 1, Name: "Ana"}}
	clone := CloneUsers(original)
	clone[0].Name = "Leo"

	assert.Equal(t, "Ana", original[0].Name)

	empty := CloneUsers(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

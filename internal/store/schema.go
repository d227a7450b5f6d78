package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/standardbeagle/usersoap/internal/types"
)

// collectionSchema describes a persisted user collection: an array of
// objects carrying an integer id and age and string name and email
var collectionSchema = &jsonschema.Schema{
	Type: "array",
	Items: &jsonschema.Schema{
		Type:     "object",
		Required: []string{"id", "name", "email", "age"},
		Properties: map[string]*jsonschema.Schema{
			"id":    {Type: "integer"},
			"name":  {Type: "string"},
			"email": {Type: "string"},
			"age":   {Type: "integer"},
		},
	},
}

var resolvedCollectionSchema = mustResolve(collectionSchema)

func mustResolve(s *jsonschema.Schema) *jsonschema.Resolved {
	r, err := s.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("invalid collection schema: %v", err))
	}
	return r
}

// decodeUsers validates raw JSON against the collection schema and decodes it
func decodeUsers(data []byte) ([]types.User, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, err
	}
	if err := resolvedCollectionSchema.Validate(instance); err != nil {
		return nil, err
	}

	users := []types.User{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// encodeUsers renders users the way the file backend persists them
func encodeUsers(users []types.User) ([]byte, error) {
	return json.MarshalIndent(types.CloneUsers(users), "", "  ")
}

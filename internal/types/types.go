package types

// User is a single persisted user record.
type User struct {
	ID    int    `json:"id" db:"id" xml:"id"`
	Name  string `json:"name" db:"name" xml:"name"`
	Email string `json:"email" db:"email" xml:"email"`
	Age   int    `json:"age" db:"age" xml:"age"`
}

// Operation names one of the dispatchable user operations
type Operation string

const (
	OpGetAllUsers Operation = "GetAllUsers"
	OpGetUser     Operation = "GetUser"
	OpCreateUser  Operation = "CreateUser"
	OpUpdateUser  Operation = "UpdateUser"
	OpDeleteUser  Operation = "DeleteUser"
)

// Operations lists every known operation in dispatch order
var Operations = []Operation{
	OpGetAllUsers,
	OpGetUser,
	OpCreateUser,
	OpUpdateUser,
	OpDeleteUser,
}

// Known reports whether o is one of the dispatchable operations
func (o Operation) Known() bool {
	for _, known := range Operations {
		if o == known {
			return true
		}
	}
	return false
}

func (o Operation) String() string {
	return string(o)
}

// NextID returns the id the store assigns to the next created user:
// one more than the largest id present, or 1 for an empty collection.
func NextID(users []User) int {
	maxID := 0
	for _, u := range users {
		if u.ID > maxID {
			maxID = u.ID
		}
	}
	return maxID + 1
}

// CloneUsers returns a copy of users that shares no backing array with the input.
// A nil input yields an empty, non-nil slice.
func CloneUsers(users []User) []User {
	out := make([]User, len(users))
	copy(out, users)
	return out
}

package user

import (
	"time"

	"github.com/google/uuid"
)

// Roles carried in the session token.
const (
	RoleUser  = "user"
	RoleOwner = "owner"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is what sign-in, sign-up and the session endpoint return.
type Session struct {
	Token string `json:"token,omitempty"`
	User  User   `json:"user"`
	Role  string `json:"role"`
}

func sanitizeUser(u User) User {
	u.Password = ""
	return u
}

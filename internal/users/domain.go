package users

import (
	"time"

	"github.com/warepulse/warepulse/internal/shared"
)

// User represents an account for management views. The password hash is never
// selected into this type.
type User struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      shared.Role `json:"role"`
	ClientID  *string     `json:"clientId"`
	CreatedAt time.Time   `json:"createdAt"`
}

// UpdateParams carries the mutable account fields.
type UpdateParams struct {
	Username string
	Email    string
	Role     shared.Role
	ClientID *string
}

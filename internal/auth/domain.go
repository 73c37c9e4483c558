package auth

import (
	"time"

	"github.com/warepulse/warepulse/internal/shared"
)

// User represents a dashboard account. The password hash never serialises.
type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         shared.Role `json:"role"`
	ClientID     *string     `json:"clientId"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Identity converts the account into the request-scoped caller identity.
func (u *User) Identity() *shared.Identity {
	id := &shared.Identity{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}
	if u.ClientID != nil {
		id.ClientID = *u.ClientID
	}
	return id
}

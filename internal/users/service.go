package users

import (
	"context"

	"github.com/warepulse/warepulse/internal/shared"
)

// Store defines persistence operations for user management.
type Store interface {
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id int64, params UpdateParams) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Service wraps user management business rules.
type Service struct {
	store Store
}

// NewService constructs a new Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns every account.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

// Update applies account changes.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*User, error) {
	return s.store.UpdateUser(ctx, id, params)
}

// Delete removes an account. Callers may not delete themselves.
func (s *Service) Delete(ctx context.Context, callerID, id int64) error {
	if callerID == id {
		return shared.ErrSelfDelete
	}
	return s.store.DeleteUser(ctx, id)
}

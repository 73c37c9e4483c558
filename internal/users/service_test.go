package users

import (
	"context"
	"errors"
	"testing"

	"github.com/warepulse/warepulse/internal/shared"
)

type mockUserStore struct {
	users   []User
	deleted []int64
}

func (m *mockUserStore) ListUsers(ctx context.Context) ([]User, error) {
	return m.users, nil
}

func (m *mockUserStore) UpdateUser(ctx context.Context, id int64, params UpdateParams) (*User, error) {
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].Username = params.Username
			m.users[i].Email = params.Email
			m.users[i].Role = params.Role
			m.users[i].ClientID = params.ClientID
			return &m.users[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockUserStore) DeleteUser(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func TestDeleteRejectsSelf(t *testing.T) {
	store := &mockUserStore{}
	svc := NewService(store)

	if err := svc.Delete(context.Background(), 5, 5); !errors.Is(err, shared.ErrSelfDelete) {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("store must not be touched, deleted %v", store.deleted)
	}
}

func TestDeleteOtherUser(t *testing.T) {
	store := &mockUserStore{}
	svc := NewService(store)

	if err := svc.Delete(context.Background(), 5, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 7 {
		t.Fatalf("deleted = %v", store.deleted)
	}
}

func TestUpdateUnknownUser(t *testing.T) {
	svc := NewService(&mockUserStore{})
	if _, err := svc.Update(context.Background(), 42, UpdateParams{}); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

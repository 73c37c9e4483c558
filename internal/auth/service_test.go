package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/warepulse/warepulse/internal/shared"
)

type mockUserRepo struct {
	byEmail map[string]*User
	byID    map[int64]*User
	nextID  int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byEmail: map[string]*User{}, byID: map[int64]*User{}, nextID: 1}
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if user, ok := m.byEmail[email]; ok {
		return user, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	if user, ok := m.byID[id]; ok {
		return user, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockUserRepo) CreateUser(ctx context.Context, user User) (*User, error) {
	user.ID = m.nextID
	m.nextID++
	stored := user
	m.byEmail[user.Email] = &stored
	m.byID[user.ID] = &stored
	return &stored, nil
}

func (m *mockUserRepo) add(t *testing.T, email, password string, role shared.Role, clientID *string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user, err := m.CreateUser(context.Background(), User{
		Username:     email,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		ClientID:     clientID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return user
}

func TestAuthenticateAndVerifyRoundTrip(t *testing.T) {
	repo := newMockUserRepo()
	clientID := "ACME"
	repo.add(t, "ops@acme.test", "secret123", shared.RoleClient, &clientID)

	svc := NewService(repo, "test-secret", time.Hour)

	user, token, err := svc.Authenticate(context.Background(), "ops@acme.test", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	identity, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.UserID != user.ID {
		t.Fatalf("user id = %d, want %d", identity.UserID, user.ID)
	}
	if identity.Role != shared.RoleClient || identity.ClientID != "ACME" {
		t.Fatalf("identity = %+v", identity)
	}
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	repo.add(t, "admin@warepulse.test", "secret123", shared.RoleAdmin, nil)

	svc := NewService(repo, "test-secret", time.Hour)

	if _, _, err := svc.Authenticate(context.Background(), "admin@warepulse.test", "nope"); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Authenticate(context.Background(), "ghost@warepulse.test", "secret123"); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	repo := newMockUserRepo()
	repo.add(t, "admin@warepulse.test", "secret123", shared.RoleAdmin, nil)

	svc := NewService(repo, "test-secret", time.Minute)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return base })

	_, token, err := svc.Authenticate(context.Background(), "admin@warepulse.test", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	svc.WithNow(func() time.Time { return base.Add(2 * time.Minute) })
	if _, err := svc.VerifyToken(token); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected expiry rejection, got %v", err)
	}
}

func TestVerifyTokenRejectsForeignSignature(t *testing.T) {
	repo := newMockUserRepo()
	repo.add(t, "admin@warepulse.test", "secret123", shared.RoleAdmin, nil)

	issuer := NewService(repo, "secret-a", time.Hour)
	verifier := NewService(repo, "secret-b", time.Hour)

	_, token, err := issuer.Authenticate(context.Background(), "admin@warepulse.test", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := verifier.VerifyToken(token); err == nil {
		t.Fatal("token signed with another secret must fail")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	repo.add(t, "admin@warepulse.test", "secret123", shared.RoleAdmin, nil)

	svc := NewService(repo, "test-secret", time.Hour)
	_, _, err := svc.Register(context.Background(), RegisterParams{
		Username: "dup",
		Email:    "admin@warepulse.test",
		Password: "secret123",
		Role:     shared.RoleAdmin,
	})
	if !errors.Is(err, shared.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

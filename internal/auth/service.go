package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/warepulse/warepulse/internal/shared"
)

const bcryptCost = 10

// Claims is the bearer token payload carrying role and client scope.
type Claims struct {
	Email    string      `json:"email"`
	Role     shared.Role `json:"role"`
	ClientID string      `json:"clientId,omitempty"`
	jwt.RegisteredClaims
}

// Service wraps credential checks and stateless token issuance.
type Service struct {
	repo   Repository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService constructs a Service. The signing secret must be non-empty.
func NewService(repo Repository, secret string, ttl time.Duration) *Service {
	return &Service{
		repo:   repo,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Authenticate validates email/password credentials and issues a token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// RegisterParams describes a new account request.
type RegisterParams struct {
	Username string
	Email    string
	Password string
	Role     shared.Role
	ClientID *string
}

// Register creates a new account and issues its first token.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, string, error) {
	if _, err := s.repo.FindByEmail(ctx, params.Email); err == nil {
		return nil, "", fmt.Errorf("%w: email already registered", shared.ErrDuplicate)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcryptCost)
	if err != nil {
		return nil, "", err
	}
	user, err := s.repo.CreateUser(ctx, User{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: string(hash),
		Role:         params.Role,
		ClientID:     params.ClientID,
	})
	if err != nil {
		return nil, "", err
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// CurrentUser loads the account behind an identity.
func (s *Service) CurrentUser(ctx context.Context, id *shared.Identity) (*User, error) {
	if id == nil {
		return nil, shared.ErrNotFound
	}
	return s.repo.FindByID(ctx, id.UserID)
}

// IssueToken signs a bearer token embedding the caller identity.
func (s *Service) IssueToken(user *User) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	if user.ClientID != nil {
		claims.ClientID = *user.ClientID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken recovers the caller identity from a bearer token, or fails
// with an authentication error.
func (s *Service) VerifyToken(token string) (*shared.Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return nil, shared.ErrInvalidCredentials
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return &shared.Identity{
		UserID:   userID,
		Email:    claims.Email,
		Role:     claims.Role,
		ClientID: claims.ClientID,
	}, nil
}

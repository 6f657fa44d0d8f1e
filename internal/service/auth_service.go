package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/membership-service/internal/auth"
	"github.com/spec-kit/membership-service/internal/config"
	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/repository"
	apperrors "github.com/spec-kit/membership-service/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	persons    repository.PersonRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, persons repository.PersonRepository) *AuthService {
	return &AuthService{
		persons:    persons,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a new person with the base STUDENT role.
func (s *AuthService) Register(ctx context.Context, name, email, externalCode, password string) (*domain.Person, string, time.Time, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("name, email and password are required", nil)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, "", time.Time{}, apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}

	if _, err := s.persons.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	person := &domain.Person{
		Name:           name,
		Email:          email,
		ExternalCode:   strings.TrimSpace(externalCode),
		AssignedRole:   domain.RoleStudent,
		CredentialHash: hash,
	}
	if err := s.persons.Create(ctx, person); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(person.ID, person.AssignedRole)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return person, token, exp, nil
}

// Login authenticates a person and issues a role-bearing token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Person, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	person, err := s.persons.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if person.SoftDeleted {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !person.CredentialPresent() {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(person.CredentialHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(person.ID, person.AssignedRole)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return person, token, exp, nil
}

package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/repository"
	apperrors "github.com/spec-kit/membership-service/pkg/util/errorutil"
)

// AuthorizationService derives the effective authorization for a person by
// combining their assigned role with the live membership status. The result
// is computed fresh on every call so a removal takes effect immediately.
type AuthorizationService struct {
	persons repository.PersonRepository
	records repository.MembershipRepository
}

// NewAuthorizationService constructs the resolver.
func NewAuthorizationService(persons repository.PersonRepository, records repository.MembershipRepository) *AuthorizationService {
	return &AuthorizationService{persons: persons, records: records}
}

// Resolve returns the effective role and routing hint for the person.
func (s *AuthorizationService) Resolve(ctx context.Context, personID string) (domain.Authorization, error) {
	person, err := s.persons.GetByID(ctx, personID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Authorization{}, apperrors.NewNotFound("person", map[string]any{"person_id": personID})
		}
		return domain.Authorization{}, err
	}
	if person.SoftDeleted {
		return domain.Authorization{}, apperrors.NewForbidden("person account is deleted")
	}

	record, err := s.records.GetLatestByPerson(ctx, personID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.Authorization{}, err
		}
		record = nil
	}

	return domain.ResolveAuthorization(person.AssignedRole, record), nil
}

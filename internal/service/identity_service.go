package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/events"
	"github.com/spec-kit/membership-service/internal/repository"
	apperrors "github.com/spec-kit/membership-service/pkg/util/errorutil"
)

// IdentityService handles administrative person management: soft deletion
// with membership fan-out, restoration, and roster queries. Persons are
// never hard-deleted.
type IdentityService struct {
	persons    repository.PersonRepository
	membership *MembershipService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	clock      func() time.Time
}

// NewIdentityService constructs the service.
func NewIdentityService(persons repository.PersonRepository, membership *MembershipService, dispatcher events.Dispatcher, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		persons:    persons,
		membership: membership,
		dispatcher: dispatcher,
		logger:     logger,
		clock:      time.Now,
	}
}

// GetPerson fetches one person by id.
func (s *IdentityService) GetPerson(ctx context.Context, id string) (*domain.Person, error) {
	person, err := s.persons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("person", map[string]any{"person_id": id})
		}
		return nil, err
	}
	return person, nil
}

// ListPersonsByRole lists non-deleted persons holding any of the roles.
func (s *IdentityService) ListPersonsByRole(ctx context.Context, roles []domain.Role) ([]domain.Person, error) {
	for _, role := range roles {
		if !role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
		}
	}
	return s.persons.ListByRoles(ctx, roles)
}

// DeletePerson soft-deletes the person and opens a removal cycle on every
// membership record they own. The membership fan-out tolerates partial
// failure: each record's removal is idempotent, so re-running the deletion
// completes the remainder.
func (s *IdentityService) DeletePerson(ctx context.Context, personID, actorID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperrors.NewValidationError("reason is required", map[string]any{"field": "reason"})
	}

	actorPerson, err := s.GetPerson(ctx, actorID)
	if err != nil {
		return err
	}
	actor := actorPerson.Snapshot()

	target, err := s.GetPerson(ctx, personID)
	if err != nil {
		return err
	}

	now := s.clock()
	if !target.SoftDeleted {
		if err := s.persons.MarkDeleted(ctx, personID, actor, reason, now); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
	}

	removed, err := s.membership.RemoveAllForPerson(ctx, personID, actor, reason)
	if err != nil {
		s.logger.Warn("membership fan-out incomplete during person deletion",
			zap.String("person_id", personID),
			zap.Error(err),
		)
		return err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventPersonDeleted,
			PersonID:  personID,
			Actor:     actor,
			Timestamp: now,
			Payload: events.PersonDeletedPayload{
				Reason:         reason,
				RecordsRemoved: removed,
			},
		})
	}
	return nil
}

// RestorePerson clears the soft-delete flag. Membership records are not
// reactivated automatically; removal stays audited and restores go through
// the membership state machine.
func (s *IdentityService) RestorePerson(ctx context.Context, personID string) error {
	if err := s.persons.Restore(ctx, personID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("person", map[string]any{"person_id": personID})
		}
		return err
	}
	return nil
}

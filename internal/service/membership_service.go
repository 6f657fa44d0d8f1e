package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/config"
	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/events"
	"github.com/spec-kit/membership-service/internal/repository"
	apperrors "github.com/spec-kit/membership-service/pkg/util/errorutil"
)

// MembershipService drives the membership lifecycle state machine. Every
// transition is guarded by a conditional status update at the store layer;
// when the guard fails the record is re-read before reporting, never assumed
// from the stale copy.
type MembershipService struct {
	persons    repository.PersonRepository
	records    repository.MembershipRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger

	cooldown     time.Duration
	reasonMaxLen int
	clock        func() time.Time
}

// MembershipDependencies bundles collaborators for the membership service.
type MembershipDependencies struct {
	PersonRepo     repository.PersonRepository
	MembershipRepo repository.MembershipRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// ApplyInput describes a membership application payload.
type ApplyInput struct {
	Fields              domain.ApplicationFields
	ReapplicationReason string
}

// NewMembershipService constructs the service.
func NewMembershipService(cfg config.MembershipConfig, deps MembershipDependencies) *MembershipService {
	reasonMax := cfg.ReasonMaxLength
	if reasonMax <= 0 {
		reasonMax = 500
	}
	return &MembershipService{
		persons:      deps.PersonRepo,
		records:      deps.MembershipRepo,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		cooldown:     cfg.ReapplyCooldown(),
		reasonMaxLen: reasonMax,
		clock:        time.Now,
	}
}

// Apply submits a membership application for the person. A person with an
// ACTIVE record cannot apply again; a REMOVED person may only apply after
// the cooldown has elapsed, and the new record is flagged as a
// reapplication.
func (s *MembershipService) Apply(ctx context.Context, personID string, input ApplyInput) (*domain.MembershipRecord, error) {
	person, err := s.persons.GetByID(ctx, personID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("person", map[string]any{"person_id": personID})
		}
		return nil, err
	}
	if person.SoftDeleted {
		return nil, apperrors.NewForbidden("person account is deleted")
	}

	if _, err := s.records.GetActiveByPerson(ctx, personID); err == nil {
		return nil, apperrors.NewAlreadyActive(personID)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	now := s.clock()
	record := &domain.MembershipRecord{
		PersonID:    personID,
		Status:      domain.MembershipStatusPending,
		Application: input.Fields,
	}

	latest, err := s.records.GetLatestByPerson(ctx, personID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if latest != nil && latest.Status == domain.MembershipStatusRemoved {
		if latest.RemovedAt != nil {
			elapsed := now.Sub(*latest.RemovedAt)
			if elapsed < s.cooldown {
				return nil, apperrors.NewCooldownNotElapsed(map[string]any{
					"removed_at":  latest.RemovedAt,
					"retry_after": latest.RemovedAt.Add(s.cooldown),
				})
			}
		}
		record.IsReapplication = true
		record.ReapplicationAt = &now
		if reason := strings.TrimSpace(input.ReapplicationReason); reason != "" {
			record.ReapplicationReason = &reason
		}
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventMembershipApplied,
		RecordID: record.ID,
		PersonID: personID,
		Actor:    person.Snapshot(),
		Payload:  events.MembershipAppliedPayload{IsReapplication: record.IsReapplication},
	})
	return record, nil
}

// Approve activates a PENDING (or administratively paused INACTIVE) record.
func (s *MembershipService) Approve(ctx context.Context, recordID, actorID string) (*domain.MembershipRecord, error) {
	actor, err := s.actorSnapshot(ctx, actorID)
	if err != nil {
		return nil, err
	}

	record, err := s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.MembershipStatusPending && record.Status != domain.MembershipStatusInactive {
		return nil, apperrors.NewInvalidTransition("approve", string(record.Status))
	}

	if active, err := s.records.GetActiveByPerson(ctx, record.PersonID); err == nil && active.ID != record.ID {
		return nil, apperrors.NewDuplicateActiveMembership(record.PersonID, active.ID)
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	expected := record.Status
	record.MarkApproved(actor, s.clock())
	if err := s.records.UpdateIfStatus(ctx, record, expected); err != nil {
		return nil, s.conflictError(ctx, recordID, "approve", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventMembershipApproved,
		RecordID: record.ID,
		PersonID: record.PersonID,
		Actor:    actor,
	})
	return record, nil
}

// Reject declines a PENDING record with a mandatory reason.
func (s *MembershipService) Reject(ctx context.Context, recordID, actorID, reason string) (*domain.MembershipRecord, error) {
	reason, err := s.validateReason(reason)
	if err != nil {
		return nil, err
	}
	actor, err := s.actorSnapshot(ctx, actorID)
	if err != nil {
		return nil, err
	}

	record, err := s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.MembershipStatusPending {
		return nil, apperrors.NewInvalidTransition("reject", string(record.Status))
	}

	expected := record.Status
	record.MarkRejected(actor, reason, s.clock())
	if err := s.records.UpdateIfStatus(ctx, record, expected); err != nil {
		return nil, s.conflictError(ctx, recordID, "reject", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventMembershipRejected,
		RecordID: record.ID,
		PersonID: record.PersonID,
		Actor:    actor,
		Payload:  events.MembershipRejectedPayload{Reason: reason},
	})
	return record, nil
}

// SetInactive pauses a record administratively. Reachable from any status;
// removal history is untouched.
func (s *MembershipService) SetInactive(ctx context.Context, recordID, actorID string) (*domain.MembershipRecord, error) {
	if _, err := s.actorSnapshot(ctx, actorID); err != nil {
		return nil, err
	}

	record, err := s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	expected := record.Status
	record.MarkInactive()
	if err := s.records.UpdateIfStatus(ctx, record, expected); err != nil {
		return nil, s.conflictError(ctx, recordID, "set inactive", err)
	}
	return record, nil
}

// Remove opens a new removal cycle. Calling it on an already-REMOVED record
// reports AlreadyRemoved without mutating anything.
func (s *MembershipService) Remove(ctx context.Context, recordID, actorID, reason string) (*domain.MembershipRecord, error) {
	reason, err := s.validateReason(reason)
	if err != nil {
		return nil, err
	}
	actor, err := s.actorSnapshot(ctx, actorID)
	if err != nil {
		return nil, err
	}

	record, err := s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status == domain.MembershipStatusRemoved {
		return nil, apperrors.NewAlreadyRemoved(recordID)
	}

	expected := record.Status
	record.BeginRemoval(actor, reason, s.clock())
	if err := s.records.UpdateIfStatus(ctx, record, expected); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			fresh, readErr := s.getRecord(ctx, recordID)
			if readErr == nil && fresh.Status == domain.MembershipStatusRemoved {
				return nil, apperrors.NewAlreadyRemoved(recordID)
			}
		}
		return nil, s.conflictError(ctx, recordID, "remove", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventMembershipRemoved,
		RecordID: record.ID,
		PersonID: record.PersonID,
		Actor:    actor,
		Payload: events.MembershipRemovedPayload{
			Reason:     reason,
			CycleCount: len(record.RemovalHistory),
		},
	})
	return record, nil
}

// Restore closes the latest removal cycle and reactivates the record. Fails
// when the person already holds a different ACTIVE record.
func (s *MembershipService) Restore(ctx context.Context, recordID, actorID, reason string) (*domain.MembershipRecord, error) {
	reason, err := s.validateReason(reason)
	if err != nil {
		return nil, err
	}
	actor, err := s.actorSnapshot(ctx, actorID)
	if err != nil {
		return nil, err
	}

	record, err := s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.MembershipStatusRemoved {
		return nil, apperrors.NewInvalidTransition("restore", string(record.Status))
	}

	if active, err := s.records.GetActiveByPerson(ctx, record.PersonID); err == nil {
		return nil, apperrors.NewDuplicateActiveMembership(record.PersonID, active.ID)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	record.CloseRemoval(actor, reason, s.clock())
	if err := s.records.UpdateIfStatus(ctx, record, domain.MembershipStatusRemoved); err != nil {
		return nil, s.conflictError(ctx, recordID, "restore", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventMembershipRestored,
		RecordID: record.ID,
		PersonID: record.PersonID,
		Actor:    actor,
		Payload:  events.MembershipRestoredPayload{Reason: reason},
	})
	return record, nil
}

// ResetCooldown back-dates the removal timestamp so the person may reapply
// immediately. Status and history are untouched.
func (s *MembershipService) ResetCooldown(ctx context.Context, recordID, actorID string) (*domain.MembershipRecord, error) {
	actor, err := s.actorSnapshot(ctx, actorID)
	if err != nil {
		return nil, err
	}

	record, err := s.getRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.MembershipStatusRemoved {
		return nil, apperrors.NewInvalidTransition("reset cooldown", string(record.Status))
	}

	backdated := s.clock().Add(-s.cooldown - time.Minute)
	record.RemovedAt = &backdated
	if err := s.records.UpdateIfStatus(ctx, record, domain.MembershipStatusRemoved); err != nil {
		return nil, s.conflictError(ctx, recordID, "reset cooldown", err)
	}

	s.logger.Info("cooldown reset",
		zap.String("record_id", recordID),
		zap.String("actor_id", actor.ID),
	)
	return record, nil
}

// GetForPerson returns the authoritative (latest) record for a person, or
// NotFound when they never applied.
func (s *MembershipService) GetForPerson(ctx context.Context, personID string) (*domain.MembershipRecord, error) {
	record, err := s.records.GetLatestByPerson(ctx, personID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("membership record", map[string]any{"person_id": personID})
		}
		return nil, err
	}
	return record, nil
}

// GetHistory returns every record the person has owned, newest first.
func (s *MembershipService) GetHistory(ctx context.Context, personID string) ([]domain.MembershipRecord, error) {
	return s.records.ListByPerson(ctx, personID)
}

// List returns records matching the filter for admin views.
func (s *MembershipService) List(ctx context.Context, filter repository.MembershipFilter) ([]domain.MembershipRecord, error) {
	return s.records.ListWithFilter(ctx, filter)
}

// RemoveAllForPerson opens a removal cycle on every record the person owns
// that is not already REMOVED. Used by bulk person deletion; each record's
// removal is idempotent, so partial failures are safe to retry. Returns how
// many records were removed.
func (s *MembershipService) RemoveAllForPerson(ctx context.Context, personID string, actor domain.ActorSnapshot, reason string) (int, error) {
	reason, err := s.validateReason(reason)
	if err != nil {
		return 0, err
	}

	records, err := s.records.ListByPerson(ctx, personID)
	if err != nil {
		return 0, err
	}

	removed := 0
	var firstErr error
	for i := range records {
		record := &records[i]
		if record.Status == domain.MembershipStatusRemoved {
			continue
		}
		expected := record.Status
		record.BeginRemoval(actor, reason, s.clock())
		if err := s.records.UpdateIfStatus(ctx, record, expected); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				// Lost a race; a retry of the bulk operation picks it up.
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
			s.logger.Warn("bulk removal failed for record",
				zap.String("record_id", record.ID),
				zap.Error(err),
			)
			continue
		}
		removed++
	}
	return removed, firstErr
}

func (s *MembershipService) getRecord(ctx context.Context, recordID string) (*domain.MembershipRecord, error) {
	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("membership record", map[string]any{"record_id": recordID})
		}
		return nil, err
	}
	return record, nil
}

func (s *MembershipService) actorSnapshot(ctx context.Context, actorID string) (domain.ActorSnapshot, error) {
	person, err := s.persons.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ActorSnapshot{}, apperrors.NewNotFound("actor", map[string]any{"actor_id": actorID})
		}
		return domain.ActorSnapshot{}, err
	}
	return person.Snapshot(), nil
}

func (s *MembershipService) validateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperrors.NewValidationError("reason is required", map[string]any{"field": "reason"})
	}
	if len(reason) > s.reasonMaxLen {
		return "", apperrors.NewValidationError("reason exceeds maximum length", map[string]any{
			"field":      "reason",
			"max_length": s.reasonMaxLen,
		})
	}
	return reason, nil
}

// conflictError maps a failed conditional update to a caller-facing error,
// re-reading the record to name its current status.
func (s *MembershipService) conflictError(ctx context.Context, recordID, operation string, err error) error {
	if !errors.Is(err, repository.ErrStatusConflict) {
		return err
	}
	fresh, readErr := s.records.GetByID(ctx, recordID)
	if readErr != nil {
		if errors.Is(readErr, pgx.ErrNoRows) {
			return apperrors.NewNotFound("membership record", map[string]any{"record_id": recordID})
		}
		return apperrors.NewConflict("concurrent modification of membership record", map[string]any{
			"record_id": recordID,
			"operation": operation,
		})
	}
	return apperrors.NewInvalidTransition(operation, string(fresh.Status))
}

func (s *MembershipService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.clock()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

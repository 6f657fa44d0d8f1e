package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/config"
	"github.com/spec-kit/membership-service/internal/domain"
	apperrors "github.com/spec-kit/membership-service/pkg/util/errorutil"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestMembershipService() (*MembershipService, *fakePersonRepo, *fakeMembershipRepo, *testClock) {
	persons := newFakePersonRepo()
	records := newFakeMembershipRepo()
	clock := &testClock{now: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)}

	svc := NewMembershipService(config.MembershipConfig{
		ReapplyCooldownHours: 24,
		ReasonMaxLength:      500,
	}, MembershipDependencies{
		PersonRepo:     persons,
		MembershipRepo: records,
		Logger:         zap.NewNop(),
	})
	svc.clock = clock.Now
	return svc, persons, records, clock
}

func seedApplicant(persons *fakePersonRepo) *domain.Person {
	return persons.add(domain.Person{
		ID:           "applicant-1",
		Name:         "Mina Park",
		Email:        "mina@example.com",
		ExternalCode: "S-2026-014",
		AssignedRole: domain.RoleStudent,
	})
}

func seedAdmin(persons *fakePersonRepo) *domain.Person {
	return persons.add(domain.Person{
		ID:           "admin-1",
		Name:         "Dana Leader",
		Email:        "dana@example.com",
		ExternalCode: "L-001",
		AssignedRole: domain.RoleClubLeader,
	})
}

func TestApplyCreatesPendingRecord(t *testing.T) {
	svc, persons, _, _ := newTestMembershipService()
	applicant := seedApplicant(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{
		Fields: domain.ApplicationFields{Motivation: "I want to join"},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if record.Status != domain.MembershipStatusPending {
		t.Fatalf("expected PENDING, got %s", record.Status)
	}
	if record.IsReapplication {
		t.Error("first application must not be flagged as reapplication")
	}
	if record.Application.Motivation != "I want to join" {
		t.Error("expected application fields carried through")
	}
}

func TestApplyFailsWithActiveMembership(t *testing.T) {
	svc, persons, _, _ := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(context.Background(), record.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err = svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if !apperrors.HasCode(err, apperrors.CodeAlreadyActive) {
		t.Fatalf("expected ALREADY_ACTIVE, got %v", err)
	}
}

func TestApproveStampsApprovalAndClearsRejection(t *testing.T) {
	svc, persons, _, _ := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	approved, err := svc.Approve(context.Background(), record.ID, admin.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.MembershipStatusActive {
		t.Fatalf("expected ACTIVE, got %s", approved.Status)
	}
	if approved.ApprovedBy == nil || approved.ApprovedBy.ID != admin.ID {
		t.Error("expected approvedBy snapshot of the acting admin")
	}
	if approved.ApprovedBy != nil && approved.ApprovedBy.DisplayName != admin.Name {
		t.Error("expected actor display name denormalized into the record")
	}
	if approved.RejectedAt != nil || approved.RejectedBy != nil || approved.RejectionReason != nil {
		t.Error("expected rejection fields cleared")
	}
}

func TestRejectRequiresPendingAndReason(t *testing.T) {
	svc, persons, _, _ := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := svc.Reject(context.Background(), record.ID, admin.ID, "   "); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("expected VALIDATION_FAILED for blank reason, got %v", err)
	}
	if _, err := svc.Reject(context.Background(), record.ID, admin.ID, strings.Repeat("x", 501)); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("expected VALIDATION_FAILED for oversized reason, got %v", err)
	}

	rejected, err := svc.Reject(context.Background(), record.ID, admin.ID, "incomplete application")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.MembershipStatusRejected {
		t.Fatalf("expected REJECTED, got %s", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "incomplete application" {
		t.Error("expected rejection reason stored")
	}
	if rejected.ApprovedAt != nil {
		t.Error("expected approval fields cleared")
	}

	if _, err := svc.Reject(context.Background(), record.ID, admin.ID, "again"); !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION rejecting a rejected record, got %v", err)
	}
}

func TestRemoveAndCooldownRoundTrip(t *testing.T) {
	svc, persons, _, _ := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(context.Background(), record.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	removed, err := svc.Remove(context.Background(), record.ID, admin.ID, "policy violation")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Status != domain.MembershipStatusRemoved {
		t.Fatalf("expected REMOVED, got %s", removed.Status)
	}
	if len(removed.RemovalHistory) != 1 {
		t.Fatalf("expected history length 1, got %d", len(removed.RemovalHistory))
	}

	// Immediate reapplication is blocked by the cooldown.
	if _, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{}); !apperrors.HasCode(err, apperrors.CodeCooldownNotElapsed) {
		t.Fatalf("expected COOLDOWN_NOT_ELAPSED, got %v", err)
	}

	// Administrative override lets the person apply right away.
	if _, err := svc.ResetCooldown(context.Background(), record.ID, admin.ID); err != nil {
		t.Fatalf("reset cooldown: %v", err)
	}
	reapplied, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{ReapplicationReason: "resolved the issue"})
	if err != nil {
		t.Fatalf("apply after reset: %v", err)
	}
	if !reapplied.IsReapplication {
		t.Error("expected reapplication flag set")
	}
	if reapplied.ReapplicationReason == nil || *reapplied.ReapplicationReason != "resolved the issue" {
		t.Error("expected reapplication reason stored")
	}
}

func TestApplySucceedsAfterCooldownElapsed(t *testing.T) {
	svc, persons, _, clock := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(context.Background(), record.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Remove(context.Background(), record.ID, admin.ID, "inactivity"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	clock.advance(25 * time.Hour)

	reapplied, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply after cooldown: %v", err)
	}
	if !reapplied.IsReapplication {
		t.Error("expected reapplication flag set")
	}
}

func TestRemoveIdempotentReporting(t *testing.T) {
	svc, persons, records, _ := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(context.Background(), record.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Remove(context.Background(), record.ID, admin.ID, "first"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, err := svc.Remove(context.Background(), record.ID, admin.ID, "second attempt")
		if !apperrors.HasCode(err, apperrors.CodeAlreadyRemoved) {
			t.Fatalf("attempt %d: expected ALREADY_REMOVED, got %v", i+1, err)
		}
	}

	stored, err := records.GetByID(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.RemovalHistory) != 1 {
		t.Fatalf("repeated remove must not grow history, got %d entries", len(stored.RemovalHistory))
	}
	if stored.RemovalReasonCurrent == nil || *stored.RemovalReasonCurrent != "first" {
		t.Error("repeated remove must not overwrite the current reason")
	}
}

func TestRemoveRestoreReasonRoundTrip(t *testing.T) {
	svc, persons, records, _ := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(context.Background(), record.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Remove(context.Background(), record.ID, admin.ID, "X"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	restored, err := svc.Restore(context.Background(), record.ID, admin.ID, "Y")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Status != domain.MembershipStatusActive {
		t.Fatalf("expected ACTIVE after restore, got %s", restored.Status)
	}

	stored, err := records.GetByID(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	cycle := stored.LatestCycle()
	if cycle == nil {
		t.Fatal("expected history entry")
	}
	if cycle.RemovalReason != "X" {
		t.Errorf("expected historical removal reason X, got %q", cycle.RemovalReason)
	}
	if cycle.RestorationReason == nil || *cycle.RestorationReason != "Y" {
		t.Error("expected restoration reason Y on latest cycle")
	}
	if stored.RemovalReasonCurrent == nil || *stored.RemovalReasonCurrent != "X" {
		t.Error("restoration must preserve the current-cycle removal reason")
	}
}

func TestRestoreFailsWithOtherActiveMembership(t *testing.T) {
	svc, persons, _, clock := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	first, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(context.Background(), first.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Remove(context.Background(), first.ID, admin.ID, "cleanup"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	clock.advance(25 * time.Hour)
	second, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if _, err := svc.Approve(context.Background(), second.ID, admin.ID); err != nil {
		t.Fatalf("approve second: %v", err)
	}

	_, err = svc.Restore(context.Background(), first.ID, admin.ID, "should fail")
	if !apperrors.HasCode(err, apperrors.CodeDuplicateActive) {
		t.Fatalf("expected DUPLICATE_ACTIVE_MEMBERSHIP, got %v", err)
	}
}

func TestRestoreRequiresRemovedStatus(t *testing.T) {
	svc, persons, _, _ := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	_, err = svc.Restore(context.Background(), record.ID, admin.ID, "not removed")
	if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestSetInactiveFromAnyStatus(t *testing.T) {
	svc, persons, _, _ := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	paused, err := svc.SetInactive(context.Background(), record.ID, admin.ID)
	if err != nil {
		t.Fatalf("set inactive: %v", err)
	}
	if paused.Status != domain.MembershipStatusInactive {
		t.Fatalf("expected INACTIVE, got %s", paused.Status)
	}

	// Administrative reinstatement from INACTIVE.
	reinstated, err := svc.Approve(context.Background(), record.ID, admin.ID)
	if err != nil {
		t.Fatalf("approve from inactive: %v", err)
	}
	if reinstated.Status != domain.MembershipStatusActive {
		t.Fatalf("expected ACTIVE, got %s", reinstated.Status)
	}
}

func TestRemoveConflictReReadsBeforeReporting(t *testing.T) {
	svc, persons, records, _ := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(context.Background(), record.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// A concurrent admin removes the record between our read and write.
	now := time.Date(2026, 4, 1, 12, 30, 0, 0, time.UTC)
	records.mutate(record.ID, func(stored *domain.MembershipRecord) {
		stored.BeginRemoval(domain.ActorSnapshot{ID: "other-admin"}, "raced you", now)
	})

	_, err = svc.Remove(context.Background(), record.ID, admin.ID, "too late")
	if !apperrors.HasCode(err, apperrors.CodeAlreadyRemoved) {
		t.Fatalf("expected ALREADY_REMOVED after losing the race, got %v", err)
	}
}

func TestHistoryLengthNeverDecreases(t *testing.T) {
	svc, persons, records, clock := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	record, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(context.Background(), record.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	lastLen := 0
	step := func(name string, fn func() error) {
		t.Helper()
		if err := fn(); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		stored, err := records.GetByID(context.Background(), record.ID)
		if err != nil {
			t.Fatalf("get after %s: %v", name, err)
		}
		if len(stored.RemovalHistory) < lastLen {
			t.Fatalf("history shrank after %s: %d -> %d", name, lastLen, len(stored.RemovalHistory))
		}
		lastLen = len(stored.RemovalHistory)
	}

	step("remove 1", func() error {
		_, err := svc.Remove(context.Background(), record.ID, admin.ID, "first cycle")
		return err
	})
	step("restore 1", func() error {
		_, err := svc.Restore(context.Background(), record.ID, admin.ID, "welcome back")
		return err
	})
	step("remove 2", func() error {
		_, err := svc.Remove(context.Background(), record.ID, admin.ID, "second cycle")
		return err
	})
	clock.advance(time.Hour)
	step("reset cooldown", func() error {
		_, err := svc.ResetCooldown(context.Background(), record.ID, admin.ID)
		return err
	})

	if lastLen != 2 {
		t.Fatalf("expected two cycles at the end, got %d", lastLen)
	}
}

func TestRemoveAllForPersonIsIdempotent(t *testing.T) {
	svc, persons, records, clock := newTestMembershipService()
	applicant := seedApplicant(persons)
	admin := seedAdmin(persons)

	first, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(context.Background(), first.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Remove(context.Background(), first.ID, admin.ID, "old cycle"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	clock.advance(25 * time.Hour)
	second, err := svc.Apply(context.Background(), applicant.ID, ApplyInput{})
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}

	actor := domain.ActorSnapshot{ID: admin.ID, DisplayName: admin.Name}
	removed, err := svc.RemoveAllForPerson(context.Background(), applicant.ID, actor, "account deleted")
	if err != nil {
		t.Fatalf("bulk remove: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected exactly the pending record removed, got %d", removed)
	}

	// Second pass is a no-op: everything already REMOVED.
	removed, err = svc.RemoveAllForPerson(context.Background(), applicant.ID, actor, "account deleted")
	if err != nil {
		t.Fatalf("bulk remove retry: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected retry to remove nothing, got %d", removed)
	}

	stored, err := records.GetByID(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.MembershipStatusRemoved {
		t.Fatalf("expected second record REMOVED, got %s", stored.Status)
	}
}

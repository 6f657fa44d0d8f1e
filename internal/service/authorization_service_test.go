package service

import (
	"context"
	"testing"

	"github.com/spec-kit/membership-service/internal/domain"
	apperrors "github.com/spec-kit/membership-service/pkg/util/errorutil"
)

func newTestAuthorizationService() (*AuthorizationService, *fakePersonRepo, *fakeMembershipRepo) {
	persons := newFakePersonRepo()
	records := newFakeMembershipRepo()
	return NewAuthorizationService(persons, records), persons, records
}

func TestResolveWithoutRecordUsesAssignedRole(t *testing.T) {
	svc, persons, _ := newTestAuthorizationService()
	person := seedApplicant(persons)

	auth, err := svc.Resolve(context.Background(), person.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if auth.EffectiveRole != domain.RoleStudent {
		t.Errorf("effective role = %s, want STUDENT", auth.EffectiveRole)
	}
	if auth.ShouldRedirect {
		t.Error("no redirect expected without a membership record")
	}
}

func TestResolveRemovedDemotesToStudent(t *testing.T) {
	svc, persons, records := newTestAuthorizationService()
	person := persons.add(domain.Person{
		ID:           "deputy-1",
		Name:         "Noor Deputy",
		Email:        "noor@example.com",
		ExternalCode: "D-004",
		AssignedRole: domain.RoleClubDeputy,
	})
	record := &domain.MembershipRecord{PersonID: person.ID, Status: domain.MembershipStatusRemoved}
	if err := records.Create(context.Background(), record); err != nil {
		t.Fatalf("create record: %v", err)
	}

	auth, err := svc.Resolve(context.Background(), person.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if auth.EffectiveRole != domain.RoleStudent {
		t.Errorf("effective role = %s, want STUDENT after removal", auth.EffectiveRole)
	}
	if !auth.ShouldRedirect || auth.RedirectTarget != domain.RedirectTargetStudent {
		t.Errorf("redirect = %v %s, want student dashboard", auth.ShouldRedirect, auth.RedirectTarget)
	}
}

func TestResolveActiveOfficerRedirects(t *testing.T) {
	svc, persons, records := newTestAuthorizationService()
	person := persons.add(domain.Person{
		ID:           "member-1",
		Name:         "Ira Member",
		Email:        "ira@example.com",
		ExternalCode: "M-009",
		AssignedRole: domain.RoleClubMember,
	})
	record := &domain.MembershipRecord{PersonID: person.ID, Status: domain.MembershipStatusActive}
	if err := records.Create(context.Background(), record); err != nil {
		t.Fatalf("create record: %v", err)
	}

	auth, err := svc.Resolve(context.Background(), person.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if auth.EffectiveRole != domain.RoleClubMember {
		t.Errorf("effective role = %s, want CLUB_MEMBER", auth.EffectiveRole)
	}
	if !auth.ShouldRedirect || auth.RedirectTarget != domain.RedirectTargetOfficer {
		t.Errorf("redirect = %v %s, want officer dashboard", auth.ShouldRedirect, auth.RedirectTarget)
	}
}

func TestResolveSoftDeletedPersonIsForbidden(t *testing.T) {
	svc, persons, _ := newTestAuthorizationService()
	person := persons.add(domain.Person{
		ID:           "gone-1",
		Name:         "Gone Person",
		Email:        "gone@example.com",
		AssignedRole: domain.RoleStudent,
		SoftDeleted:  true,
	})

	_, err := svc.Resolve(context.Background(), person.ID)
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestResolveUnknownPersonIsNotFound(t *testing.T) {
	svc, _, _ := newTestAuthorizationService()

	_, err := svc.Resolve(context.Background(), "missing")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

package domain

import (
	"testing"
	"time"
)

var testActor = ActorSnapshot{ID: "actor-1", DisplayName: "Dana Leader", ExternalCode: "L-001"}

func TestBeginRemovalStampsCurrentCycle(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	record := &MembershipRecord{Status: MembershipStatusActive}

	record.BeginRemoval(testActor, "policy violation", now)

	if record.Status != MembershipStatusRemoved {
		t.Fatalf("expected status REMOVED, got %s", record.Status)
	}
	if record.RemovedAt == nil || !record.RemovedAt.Equal(now) {
		t.Error("expected removedAt stamped")
	}
	if record.RemovedBy == nil || record.RemovedBy.ID != testActor.ID {
		t.Error("expected removedBy snapshot")
	}
	if record.RemovalReasonCurrent == nil || *record.RemovalReasonCurrent != "policy violation" {
		t.Error("expected current removal reason set")
	}
	if record.RestoredAt != nil || record.RestoredBy != nil || record.RestorationReason != nil {
		t.Error("expected restoration fields cleared on new cycle")
	}
	if len(record.RemovalHistory) != 1 {
		t.Fatalf("expected one history entry, got %d", len(record.RemovalHistory))
	}
	if record.RemovalHistory[0].RemovalReason != "policy violation" {
		t.Error("expected history entry to carry the removal reason")
	}
}

func TestCloseRemovalPreservesCurrentReason(t *testing.T) {
	removedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	restoredAt := removedAt.Add(48 * time.Hour)

	record := &MembershipRecord{Status: MembershipStatusActive}
	record.BeginRemoval(testActor, "X", removedAt)
	record.CloseRemoval(testActor, "Y", restoredAt)

	if record.Status != MembershipStatusActive {
		t.Fatalf("expected status ACTIVE after restore, got %s", record.Status)
	}
	cycle := record.LatestCycle()
	if cycle == nil {
		t.Fatal("expected a history entry")
	}
	if cycle.RemovalReason != "X" {
		t.Errorf("expected historical removal reason X, got %q", cycle.RemovalReason)
	}
	if cycle.RestorationReason == nil || *cycle.RestorationReason != "Y" {
		t.Error("expected restoration reason Y on latest cycle")
	}
	if record.RemovalReasonCurrent == nil || *record.RemovalReasonCurrent != "X" {
		t.Error("restoration must not erase the current-cycle removal reason")
	}
	if record.RestorationReason == nil || *record.RestorationReason != "Y" {
		t.Error("expected top-level restoration reason Y")
	}
}

func TestCloseRemovalWritesLatestCycleOnce(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	record := &MembershipRecord{Status: MembershipStatusActive}

	record.BeginRemoval(testActor, "first", base)
	record.CloseRemoval(testActor, "restored once", base.Add(time.Hour))
	record.BeginRemoval(testActor, "second", base.Add(2*time.Hour))

	if len(record.RemovalHistory) != 2 {
		t.Fatalf("expected two cycles, got %d", len(record.RemovalHistory))
	}
	first := record.RemovalHistory[0]
	if first.RestorationReason == nil || *first.RestorationReason != "restored once" {
		t.Error("closed first cycle must keep its restoration data")
	}
	second := record.RemovalHistory[1]
	if second.Restored() {
		t.Error("new cycle must start without restoration data")
	}
	if record.RemovalReasonCurrent == nil || *record.RemovalReasonCurrent != "second" {
		t.Error("new removal must replace the current-cycle reason")
	}
}

func TestMarkApprovedClearsRejection(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	reason := "incomplete application"
	record := &MembershipRecord{
		Status:          MembershipStatusPending,
		RejectedAt:      &now,
		RejectedBy:      &testActor,
		RejectionReason: &reason,
	}

	record.MarkApproved(testActor, now.Add(time.Hour))

	if record.Status != MembershipStatusActive {
		t.Fatalf("expected ACTIVE, got %s", record.Status)
	}
	if record.ApprovedAt == nil || record.ApprovedBy == nil {
		t.Error("expected approval stamped")
	}
	if record.JoinedAt == nil {
		t.Error("expected joinedAt set on first approval")
	}
	if record.RejectedAt != nil || record.RejectedBy != nil || record.RejectionReason != nil {
		t.Error("expected rejection fields cleared")
	}
}

func TestMarkRejectedClearsApproval(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	record := &MembershipRecord{
		Status:     MembershipStatusPending,
		ApprovedAt: &now,
		ApprovedBy: &testActor,
	}

	record.MarkRejected(testActor, "not eligible", now.Add(time.Hour))

	if record.Status != MembershipStatusRejected {
		t.Fatalf("expected REJECTED, got %s", record.Status)
	}
	if record.RejectedAt == nil || record.RejectedBy == nil || record.RejectionReason == nil {
		t.Error("expected rejection stamped")
	}
	if record.ApprovedAt != nil || record.ApprovedBy != nil {
		t.Error("expected approval fields cleared")
	}
}

package domain

import "time"

// MembershipStatus enumerates lifecycle states for a membership record.
type MembershipStatus string

const (
	MembershipStatusPending  MembershipStatus = "PENDING"
	MembershipStatusActive   MembershipStatus = "ACTIVE"
	MembershipStatusRejected MembershipStatus = "REJECTED"
	MembershipStatusInactive MembershipStatus = "INACTIVE"
	MembershipStatusRemoved  MembershipStatus = "REMOVED"
)

// ValidMembershipStatus reports whether s is a known status value.
func ValidMembershipStatus(s MembershipStatus) bool {
	switch s {
	case MembershipStatusPending, MembershipStatusActive, MembershipStatusRejected,
		MembershipStatusInactive, MembershipStatusRemoved:
		return true
	}
	return false
}

// ActorSnapshot is a denormalized copy of the acting person, embedded in
// audit fields so history stays truthful after the actor account is deleted.
type ActorSnapshot struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	ExternalCode string `json:"external_code"`
}

// RemovalCycle is one remove -> (optional) restore pair in the audit trail.
// RemovalReason may be empty on records created before the current/historical
// reason split; readers must not assume it is populated.
type RemovalCycle struct {
	RemovedAt         time.Time      `json:"removed_at"`
	RemovedBy         ActorSnapshot  `json:"removed_by"`
	RemovalReason     string         `json:"removal_reason,omitempty"`
	RestoredAt        *time.Time     `json:"restored_at,omitempty"`
	RestoredBy        *ActorSnapshot `json:"restored_by,omitempty"`
	RestorationReason *string        `json:"restoration_reason,omitempty"`
}

// Restored reports whether this cycle has been closed by a restoration.
func (c RemovalCycle) Restored() bool {
	return c.RestoredAt != nil
}

// ApplicationFields is the free-text payload submitted with an application.
// Opaque to the state machine.
type ApplicationFields struct {
	Motivation   string
	Experience   string
	Expectations string
	Commitment   string
}

// MembershipRecord tracks one person's standing in the organization. A person
// may own several historical records; the latest by CreatedAt governs.
type MembershipRecord struct {
	ID       string
	PersonID string
	Status   MembershipStatus

	JoinedAt *time.Time

	ApprovedAt *time.Time
	ApprovedBy *ActorSnapshot

	RejectedAt      *time.Time
	RejectedBy      *ActorSnapshot
	RejectionReason *string

	// Current removal cycle. RemovalReasonCurrent is only replaced when a
	// new cycle begins, never by a restoration.
	RemovedAt            *time.Time
	RemovedBy            *ActorSnapshot
	RemovalReasonCurrent *string

	RestoredAt        *time.Time
	RestoredBy        *ActorSnapshot
	RestorationReason *string

	// Append-only; only the last entry's restoration fields may be set,
	// exactly once, when a REMOVED record is restored.
	RemovalHistory []RemovalCycle

	IsReapplication     bool
	ReapplicationAt     *time.Time
	ReapplicationReason *string

	Application ApplicationFields

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LatestCycle returns a pointer to the most recent removal cycle, or nil.
func (r *MembershipRecord) LatestCycle() *RemovalCycle {
	if len(r.RemovalHistory) == 0 {
		return nil
	}
	return &r.RemovalHistory[len(r.RemovalHistory)-1]
}

// BeginRemoval appends a fresh removal cycle and stamps the record as
// REMOVED, clearing any stale restoration fields.
func (r *MembershipRecord) BeginRemoval(actor ActorSnapshot, reason string, now time.Time) {
	r.RemovalHistory = append(r.RemovalHistory, RemovalCycle{
		RemovedAt:     now,
		RemovedBy:     actor,
		RemovalReason: reason,
	})
	r.Status = MembershipStatusRemoved
	r.RemovedAt = &now
	r.RemovedBy = &actor
	r.RemovalReasonCurrent = &reason
	r.RestoredAt = nil
	r.RestoredBy = nil
	r.RestorationReason = nil
}

// CloseRemoval writes restoration data onto the latest cycle and the record's
// top-level restoration fields, and reactivates the record. The current-cycle
// removal reason is preserved.
func (r *MembershipRecord) CloseRemoval(actor ActorSnapshot, reason string, now time.Time) {
	if cycle := r.LatestCycle(); cycle != nil && !cycle.Restored() {
		cycle.RestoredAt = &now
		cycle.RestoredBy = &actor
		cycle.RestorationReason = &reason
	}
	r.Status = MembershipStatusActive
	r.RestoredAt = &now
	r.RestoredBy = &actor
	r.RestorationReason = &reason
}

// MarkApproved stamps approval and clears rejection fields.
func (r *MembershipRecord) MarkApproved(actor ActorSnapshot, now time.Time) {
	r.Status = MembershipStatusActive
	r.ApprovedAt = &now
	r.ApprovedBy = &actor
	if r.JoinedAt == nil {
		r.JoinedAt = &now
	}
	r.RejectedAt = nil
	r.RejectedBy = nil
	r.RejectionReason = nil
}

// MarkRejected stamps rejection and clears approval fields.
func (r *MembershipRecord) MarkRejected(actor ActorSnapshot, reason string, now time.Time) {
	r.Status = MembershipStatusRejected
	r.RejectedAt = &now
	r.RejectedBy = &actor
	r.RejectionReason = &reason
	r.ApprovedAt = nil
	r.ApprovedBy = nil
}

// MarkInactive pauses the record administratively. Removal history is
// untouched.
func (r *MembershipRecord) MarkInactive() {
	r.Status = MembershipStatusInactive
	r.ApprovedAt = nil
	r.ApprovedBy = nil
	r.RejectedAt = nil
	r.RejectedBy = nil
	r.RejectionReason = nil
}

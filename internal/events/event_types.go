package events

import (
	"time"

	"github.com/spec-kit/membership-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMembershipApplied  EventType = "membership_applied"
	EventMembershipApproved EventType = "membership_approved"
	EventMembershipRejected EventType = "membership_rejected"
	EventMembershipRemoved  EventType = "membership_removed"
	EventMembershipRestored EventType = "membership_restored"
	EventPersonDeleted      EventType = "person_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string               `json:"id"`
	Type      EventType            `json:"type"`
	RecordID  string               `json:"record_id,omitempty"`
	PersonID  string               `json:"person_id"`
	Actor     domain.ActorSnapshot `json:"actor"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   interface{}          `json:"payload"`
}

// MembershipAppliedPayload payload.
type MembershipAppliedPayload struct {
	IsReapplication bool `json:"is_reapplication"`
}

// MembershipRejectedPayload payload.
type MembershipRejectedPayload struct {
	Reason string `json:"reason"`
}

// MembershipRemovedPayload payload.
type MembershipRemovedPayload struct {
	Reason     string `json:"reason"`
	CycleCount int    `json:"cycle_count"`
}

// MembershipRestoredPayload payload.
type MembershipRestoredPayload struct {
	Reason string `json:"reason"`
}

// PersonDeletedPayload payload.
type PersonDeletedPayload struct {
	Reason         string `json:"reason"`
	RecordsRemoved int    `json:"records_removed"`
}

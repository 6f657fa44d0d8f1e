package dto

import (
	"time"

	"github.com/spec-kit/membership-service/internal/domain"
)

// ApplyRequest payload for a membership application.
type ApplyRequest struct {
	Motivation          string `json:"motivation"`
	Experience          string `json:"experience"`
	Expectations        string `json:"expectations"`
	Commitment          string `json:"commitment"`
	ReapplicationReason string `json:"reapplication_reason"`
}

// ReasonRequest payload for reject/remove/restore/delete operations.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ActorView is the denormalized actor snapshot as it crosses the boundary.
type ActorView struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	ExternalCode string `json:"external_code"`
}

// RemovalCycleView is one history entry.
type RemovalCycleView struct {
	RemovedAt         time.Time  `json:"removed_at"`
	RemovedBy         ActorView  `json:"removed_by"`
	RemovalReason     string     `json:"removal_reason,omitempty"`
	RestoredAt        *time.Time `json:"restored_at,omitempty"`
	RestoredBy        *ActorView `json:"restored_by,omitempty"`
	RestorationReason *string    `json:"restoration_reason,omitempty"`
}

// MembershipResponse is the full record projection.
type MembershipResponse struct {
	ID       string `json:"id"`
	PersonID string `json:"person_id"`
	Status   string `json:"status"`

	JoinedAt *time.Time `json:"joined_at,omitempty"`

	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ApprovedBy *ActorView `json:"approved_by,omitempty"`

	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectedBy      *ActorView `json:"rejected_by,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`

	RemovedAt            *time.Time `json:"removed_at,omitempty"`
	RemovedBy            *ActorView `json:"removed_by,omitempty"`
	RemovalReasonCurrent *string    `json:"removal_reason_current,omitempty"`

	RestoredAt        *time.Time `json:"restored_at,omitempty"`
	RestoredBy        *ActorView `json:"restored_by,omitempty"`
	RestorationReason *string    `json:"restoration_reason,omitempty"`

	RemovalHistory []RemovalCycleView `json:"removal_history"`

	IsReapplication     bool       `json:"is_reapplication"`
	ReapplicationAt     *time.Time `json:"reapplication_at,omitempty"`
	ReapplicationReason *string    `json:"reapplication_reason,omitempty"`

	Motivation   string `json:"motivation,omitempty"`
	Experience   string `json:"experience,omitempty"`
	Expectations string `json:"expectations,omitempty"`
	Commitment   string `json:"commitment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthorizationResponse is the effective authorization projection.
type AuthorizationResponse struct {
	EffectiveRole  string `json:"effective_role"`
	ShouldRedirect bool   `json:"should_redirect"`
	RedirectTarget string `json:"redirect_target,omitempty"`
}

// NewMembershipResponse maps a domain record to its API projection.
func NewMembershipResponse(record *domain.MembershipRecord) MembershipResponse {
	history := make([]RemovalCycleView, 0, len(record.RemovalHistory))
	for _, cycle := range record.RemovalHistory {
		history = append(history, RemovalCycleView{
			RemovedAt:         cycle.RemovedAt,
			RemovedBy:         newActorView(cycle.RemovedBy),
			RemovalReason:     cycle.RemovalReason,
			RestoredAt:        cycle.RestoredAt,
			RestoredBy:        newActorViewPtr(cycle.RestoredBy),
			RestorationReason: cycle.RestorationReason,
		})
	}

	return MembershipResponse{
		ID:                   record.ID,
		PersonID:             record.PersonID,
		Status:               string(record.Status),
		JoinedAt:             record.JoinedAt,
		ApprovedAt:           record.ApprovedAt,
		ApprovedBy:           newActorViewPtr(record.ApprovedBy),
		RejectedAt:           record.RejectedAt,
		RejectedBy:           newActorViewPtr(record.RejectedBy),
		RejectionReason:      record.RejectionReason,
		RemovedAt:            record.RemovedAt,
		RemovedBy:            newActorViewPtr(record.RemovedBy),
		RemovalReasonCurrent: record.RemovalReasonCurrent,
		RestoredAt:           record.RestoredAt,
		RestoredBy:           newActorViewPtr(record.RestoredBy),
		RestorationReason:    record.RestorationReason,
		RemovalHistory:       history,
		IsReapplication:      record.IsReapplication,
		ReapplicationAt:      record.ReapplicationAt,
		ReapplicationReason:  record.ReapplicationReason,
		Motivation:           record.Application.Motivation,
		Experience:           record.Application.Experience,
		Expectations:         record.Application.Expectations,
		Commitment:           record.Application.Commitment,
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
	}
}

// NewAuthorizationResponse maps the resolver output.
func NewAuthorizationResponse(authz domain.Authorization) AuthorizationResponse {
	return AuthorizationResponse{
		EffectiveRole:  string(authz.EffectiveRole),
		ShouldRedirect: authz.ShouldRedirect,
		RedirectTarget: string(authz.RedirectTarget),
	}
}

func newActorView(actor domain.ActorSnapshot) ActorView {
	return ActorView{
		ID:           actor.ID,
		DisplayName:  actor.DisplayName,
		ExternalCode: actor.ExternalCode,
	}
}

func newActorViewPtr(actor *domain.ActorSnapshot) *ActorView {
	if actor == nil {
		return nil
	}
	view := newActorView(*actor)
	return &view
}

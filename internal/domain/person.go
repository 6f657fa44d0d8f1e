package domain

import "time"

// Person is the identity record for anyone known to the system.
type Person struct {
	ID             string
	Name           string
	Email          string
	ExternalCode   string
	AssignedRole   Role
	CredentialHash string
	SoftDeleted    bool
	DeletedAt      *time.Time
	DeletedBy      *ActorSnapshot
	DeletionReason *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CredentialPresent reports whether the person can authenticate.
func (p *Person) CredentialPresent() bool {
	return p.CredentialHash != ""
}

// Snapshot converts a person into the denormalized actor form used by audit
// fields.
func (p *Person) Snapshot() ActorSnapshot {
	return ActorSnapshot{
		ID:           p.ID,
		DisplayName:  p.Name,
		ExternalCode: p.ExternalCode,
	}
}

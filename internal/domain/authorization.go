package domain

// RedirectTarget names the dashboard a person should land on.
type RedirectTarget string

const (
	RedirectTargetStudent RedirectTarget = "/dashboard/student"
	RedirectTargetOfficer RedirectTarget = "/dashboard/officer"
)

// Authorization is the effective authorization derived from an assigned role
// and the live membership status.
type Authorization struct {
	EffectiveRole  Role
	ShouldRedirect bool
	RedirectTarget RedirectTarget
}

// ResolveAuthorization combines the assigned role with the latest membership
// record. Pure; must be recomputed on every check so a removal takes effect
// immediately.
func ResolveAuthorization(assigned Role, record *MembershipRecord) Authorization {
	if record == nil {
		return Authorization{EffectiveRole: assigned}
	}

	switch record.Status {
	case MembershipStatusRemoved:
		// Removal demotes to the lowest tier regardless of assigned role.
		return Authorization{
			EffectiveRole:  RoleStudent,
			ShouldRedirect: true,
			RedirectTarget: RedirectTargetStudent,
		}
	case MembershipStatusActive:
		if assigned.IsOfficerTier() {
			return Authorization{
				EffectiveRole:  assigned,
				ShouldRedirect: true,
				RedirectTarget: RedirectTargetOfficer,
			}
		}
		if assigned == RoleClubStudent {
			return Authorization{
				EffectiveRole:  assigned,
				ShouldRedirect: true,
				RedirectTarget: RedirectTargetStudent,
			}
		}
	}

	return Authorization{EffectiveRole: assigned}
}

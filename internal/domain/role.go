package domain

// Role is the statically assigned authorization level for a person.
type Role string

const (
	RoleStudent     Role = "STUDENT"
	RoleClubStudent Role = "CLUB_STUDENT"
	RoleClubMember  Role = "CLUB_MEMBER"
	RoleClubDeputy  Role = "CLUB_DEPUTY"
	RoleClubLeader  Role = "CLUB_LEADER"
	RoleAdmin       Role = "ADMIN"
	RoleSuperAdmin  Role = "SUPER_ADMIN"
)

// roleLevels is the total order over roles. Unknown roles map to 0.
var roleLevels = map[Role]int{
	RoleStudent:     1,
	RoleClubStudent: 2,
	RoleClubMember:  3,
	RoleClubDeputy:  4,
	RoleClubLeader:  5,
	RoleAdmin:       6,
	RoleSuperAdmin:  7,
}

// Level returns the role's position in the ladder; 0 for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid reports whether the role is part of the ladder.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AtLeast reports whether r ranks at or above required.
func (r Role) AtLeast(required Role) bool {
	return r.Level() >= required.Level()
}

// IsAdminTier covers leadership roles with full administrative access.
func (r Role) IsAdminTier() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleClubLeader:
		return true
	}
	return false
}

// IsOfficerTier covers working-member roles.
func (r Role) IsOfficerTier() bool {
	switch r {
	case RoleClubDeputy, RoleClubMember:
		return true
	}
	return false
}

// IsStudentTier covers the base roles.
func (r Role) IsStudentTier() bool {
	switch r {
	case RoleClubStudent, RoleStudent:
		return true
	}
	return false
}

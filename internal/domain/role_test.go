package domain

import "testing"

func TestRoleLadderOrder(t *testing.T) {
	ordered := []Role{
		RoleStudent,
		RoleClubStudent,
		RoleClubMember,
		RoleClubDeputy,
		RoleClubLeader,
		RoleAdmin,
		RoleSuperAdmin,
	}
	for i := 1; i < len(ordered); i++ {
		lower, higher := ordered[i-1], ordered[i]
		if !higher.AtLeast(lower) {
			t.Errorf("expected %s to rank at least %s", higher, lower)
		}
		if lower.AtLeast(higher) {
			t.Errorf("expected %s to rank below %s", lower, higher)
		}
	}
}

func TestRoleAtLeastSelf(t *testing.T) {
	for role := range roleLevels {
		if !role.AtLeast(role) {
			t.Errorf("expected %s to rank at least itself", role)
		}
	}
}

func TestUnknownRoleMapsToZero(t *testing.T) {
	unknown := Role("INTERN")
	if unknown.Level() != 0 {
		t.Fatalf("expected level 0 for unknown role, got %d", unknown.Level())
	}
	if unknown.AtLeast(RoleStudent) {
		t.Error("unknown role must not satisfy a mapped requirement")
	}
	if !unknown.AtLeast(Role("ALSO_UNKNOWN")) {
		t.Error("unknown role should satisfy an equally unmapped requirement")
	}
	if unknown.Valid() {
		t.Error("unknown role must not be valid")
	}
}

func TestTierPredicates(t *testing.T) {
	cases := []struct {
		role    Role
		admin   bool
		officer bool
		student bool
	}{
		{RoleSuperAdmin, true, false, false},
		{RoleAdmin, true, false, false},
		{RoleClubLeader, true, false, false},
		{RoleClubDeputy, false, true, false},
		{RoleClubMember, false, true, false},
		{RoleClubStudent, false, false, true},
		{RoleStudent, false, false, true},
	}
	for _, tc := range cases {
		if got := tc.role.IsAdminTier(); got != tc.admin {
			t.Errorf("%s IsAdminTier = %v, want %v", tc.role, got, tc.admin)
		}
		if got := tc.role.IsOfficerTier(); got != tc.officer {
			t.Errorf("%s IsOfficerTier = %v, want %v", tc.role, got, tc.officer)
		}
		if got := tc.role.IsStudentTier(); got != tc.student {
			t.Errorf("%s IsStudentTier = %v, want %v", tc.role, got, tc.student)
		}
	}
}

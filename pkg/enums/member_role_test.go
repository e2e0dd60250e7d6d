package enums

import "testing"

func TestParseMemberRole(t *testing.T) {
	cases := map[string]MemberRole{"owner": MemberRoleOwner, " Admin ": MemberRoleAdmin, "STAFF": MemberRoleStaff}
	for in, want := range cases {
		got, err := ParseMemberRole(in)
		if err != nil || got != want {
			t.Fatalf("ParseMemberRole(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMemberRole("viewer"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}

func TestCanManageSettings(t *testing.T) {
	for role, want := range map[MemberRole]bool{MemberRoleOwner: true, MemberRoleAdmin: true, MemberRoleStaff: false, "ghost": false} {
		if got := role.CanManageSettings(); got != want {
			t.Errorf("%s.CanManageSettings() = %v", role, got)
		}
	}
}

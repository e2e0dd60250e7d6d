package enums

import (
	"fmt"
	"strings"
)

// MemberRole is the role a dashboard user holds inside one store. It travels
// in the access token.
type MemberRole string

const (
	MemberRoleOwner MemberRole = "owner"
	MemberRoleAdmin MemberRole = "admin"
	MemberRoleStaff MemberRole = "staff"
)

func (m MemberRole) String() string {
	return string(m)
}

func (m MemberRole) IsValid() bool {
	switch m {
	case MemberRoleOwner, MemberRoleAdmin, MemberRoleStaff:
		return true
	}
	return false
}

// CanManageSettings reports whether the role may change store settings such
// as carrier credentials. Staff run orders and shipments only.
func (m MemberRole) CanManageSettings() bool {
	return m == MemberRoleOwner || m == MemberRoleAdmin
}

// ParseMemberRole accepts any casing and surrounding spaces.
func ParseMemberRole(value string) (MemberRole, error) {
	role := MemberRole(strings.ToLower(strings.TrimSpace(value)))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid member role %q", value)
	}
	return role, nil
}

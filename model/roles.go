package model

import "strings"

// Role identifies a capability that can be granted to an identity.
type Role string

const (
	RoleRootAdmin Role = "root_admin" // Administers root_admin and admin memberships
	RoleAdmin     Role = "admin"      // Administers issuer membership and the issuer lifecycle
	RoleIssuer    Role = "issuer"     // Permitted to mint credentials while its issuer record is active
)

// Roles lists every role the registry recognizes.
var Roles = []Role{RoleRootAdmin, RoleAdmin, RoleIssuer}

// ParseRole normalizes a role name supplied by a client.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return known, true
		}
	}
	return "", false
}

// AdminRole returns the role whose holders administer memberships of r.
// The mapping is fixed: root_admin administers itself and admin, admin
// administers issuer.
func (r Role) AdminRole() Role {
	if r == RoleIssuer {
		return RoleAdmin
	}
	return RoleRootAdmin
}

package models

// Role is an ordered permission level. A higher role has every capability of the lower ones.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) rank() int {
	switch r {
	case RoleSuperAdmin:
		return 2
	case RoleAdmin:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r grants every capability of other.
func (r Role) AtLeast(other Role) bool {
	return r.rank() >= other.rank()
}

// CanAdminister reports whether r may manage courses, lectures and users.
func (r Role) CanAdminister() bool { return r.AtLeast(RoleAdmin) }

// IsSuperAdmin reports whether r may change other users' roles.
func (r Role) IsSuperAdmin() bool { return r.AtLeast(RoleSuperAdmin) }

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

package models

import "slices"

// Role is the authorization level of an account.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// RoleSet is an explicit list of roles allowed through a gate.
type RoleSet []Role

// Contains reports whether r is in the set.
func (s RoleSet) Contains(r Role) bool {
	return slices.Contains(s, r)
}

// Common gates.
var (
	AdminOnly  = RoleSet{RoleAdmin}
	StaffRoles = RoleSet{RoleAdmin, RoleModerator}
	AllRoles   = RoleSet{RoleUser, RoleAdmin, RoleModerator}
)

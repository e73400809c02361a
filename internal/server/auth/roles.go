package auth

import "github.com/dmitrijs2005/userhub/internal/server/models"

// Authorize is the role gate: role passes only if it is in allowed.
func Authorize(role models.Role, allowed models.RoleSet) bool {
	return allowed.Contains(role)
}

package constants

import roles "coinease-backend/internal/pkg/constants"

// PermissionRoles maps each admin permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ReviewDeposits:    {roles.Staff},
	ManagePlans:       {roles.Staff},
	ManageInvestments: {roles.Staff},
	ManageSignals:     {roles.Staff},
	RunJobs:           {roles.Staff},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

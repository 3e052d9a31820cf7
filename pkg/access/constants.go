package access

// Role represents a user role in the dashboard access-control system
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleDirector    Role = "director"
	RoleSuperAdmin  Role = "super_admin"
)

// Role hierarchy ranks (higher number = higher privilege)
var roleRanks = map[Role]int{
	RoleCoordinator: 1,
	RoleDirector:    2,
	RoleSuperAdmin:  3,
}

// RankOf returns the hierarchy rank for a role.
// Unknown roles rank below every defined role.
func RankOf(role Role) int {
	return roleRanks[role]
}

// IsValid reports whether the role is one of the defined roles.
func (r Role) IsValid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Permission represents an atomic capability token granted per role
type Permission string

const (
	// User management
	PermissionManageUsers     Permission = "manage_users"
	PermissionViewAllUsers    Permission = "view_all_users"
	PermissionChangeUserRoles Permission = "change_user_roles"

	// Patient management
	PermissionViewAllPatients       Permission = "view_all_patients"
	PermissionViewOwnClinicPatients Permission = "view_own_clinic_patients"
	PermissionEditPatientBasic      Permission = "edit_patient_basic"
	PermissionEditPatientAdvanced   Permission = "edit_patient_advanced"

	// Clinic management
	PermissionManageClinics  Permission = "manage_clinics"
	PermissionViewAllClinics Permission = "view_all_clinics"

	// Special permissions
	PermissionViewAuditLogs Permission = "view_audit_logs"
	PermissionBypassRLS     Permission = "bypass_rls"

	// Patient fields
	PermissionEditApartmentNumber Permission = "edit_apartment_number"
	PermissionEditDepartureInfo   Permission = "edit_departure_info"
	PermissionEditNotes           Permission = "edit_notes"
	PermissionEditChinaEntryDate  Permission = "edit_china_entry_date"
	PermissionEditChineseName     Permission = "edit_chinese_name"
)

// Base permissions for coordinator
var coordinatorPermissions = []Permission{
	PermissionViewOwnClinicPatients,
	PermissionEditPatientBasic,
	PermissionEditApartmentNumber,
	PermissionEditDepartureInfo,
	PermissionEditNotes,
	PermissionEditChinaEntryDate,
	PermissionEditChineseName,
}

// Additional permissions for director
var directorAdditionalPermissions = []Permission{
	PermissionViewAllPatients,
	PermissionViewAllClinics,
	PermissionEditPatientAdvanced,
}

// Additional permissions for super_admin
var superAdminAdditionalPermissions = []Permission{
	PermissionManageUsers,
	PermissionViewAllUsers,
	PermissionChangeUserRoles,
	PermissionManageClinics,
	PermissionViewAuditLogs,
	PermissionBypassRLS,
}

// rolePermissions maps each role to its full permission set. Each role
// inherits all permissions of the roles below it in the hierarchy.
var rolePermissions = map[Role][]Permission{
	RoleCoordinator: coordinatorPermissions,

	RoleDirector: concat(
		coordinatorPermissions,
		directorAdditionalPermissions,
	),

	RoleSuperAdmin: concat(
		coordinatorPermissions,
		directorAdditionalPermissions,
		superAdminAdditionalPermissions,
	),
}

// PermissionsOf returns the full permission set for a role, including
// everything inherited from lower roles. The returned slice is a copy.
func PermissionsOf(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether a role holds the given permission.
func HasPermission(role Role, permission Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// HasRoleLevel reports whether userRole is at least as privileged as
// requiredRole.
func HasRoleLevel(userRole, requiredRole Role) bool {
	return RankOf(userRole) >= RankOf(requiredRole)
}

func concat(sets ...[]Permission) []Permission {
	var out []Permission
	for _, set := range sets {
		out = append(out, set...)
	}
	return out
}

package secure

// Role is the fixed set of platform roles. Values match the role claim
// stored alongside each identity.
type Role string

const (
	RolePlatformAdmin Role = "platform_admin"
	RoleSuperAdmin    Role = "super_admin"
	RoleAdmin         Role = "admin"
	RoleOwner         Role = "owner"
	RoleManager       Role = "manager"
	RoleStaff         Role = "staff"
	RoleCustomer      Role = "customer"
	RoleGuest         Role = "guest"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{
		RolePlatformAdmin,
		RoleSuperAdmin,
		RoleAdmin,
		RoleOwner,
		RoleManager,
		RoleStaff,
		RoleCustomer,
		RoleGuest,
	}
}

// ParseRole returns the role matching value, or false when unknown.
func ParseRole(value string) (Role, bool) {
	for _, r := range Roles() {
		if string(r) == value {
			return r, true
		}
	}
	return "", false
}

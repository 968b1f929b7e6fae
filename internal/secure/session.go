package secure

import "github.com/google/uuid"

// VerifiedSession is the trusted representation of the caller for one
// request. It is built once by the Resolver, never persisted, and must not
// be mutated after construction.
type VerifiedSession struct {
	IdentityID  uuid.UUID
	Email       string
	Role        Role
	SalonID     uuid.NullUUID
	Permissions PermissionSet

	IsAdmin         bool
	IsPlatformAdmin bool
	IsSalonOwner    bool
	IsStaff         bool
	IsCustomer      bool
}

// ResourceContext describes a single access being authorized: what kind of
// resource, which row if known, who owns it, which salon it belongs to,
// and the requested action.
type ResourceContext struct {
	Kind       Kind
	ResourceID uuid.NullUUID
	OwnerID    uuid.NullUUID
	SalonID    uuid.NullUUID
	Action     Action
}

func newVerifiedSession(id uuid.UUID, email string, role Role, salonID uuid.NullUUID) *VerifiedSession {
	return &VerifiedSession{
		IdentityID:      id,
		Email:           email,
		Role:            role,
		SalonID:         salonID,
		Permissions:     ExpandRole(role),
		IsAdmin:         role == RoleAdmin || role == RoleSuperAdmin || role == RolePlatformAdmin,
		IsPlatformAdmin: role == RolePlatformAdmin,
		IsSalonOwner:    role == RoleOwner,
		IsStaff:         role == RoleStaff || role == RoleManager,
		IsCustomer:      role == RoleCustomer,
	}
}

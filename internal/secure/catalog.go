package secure

// Kind identifies a protected resource type.
type Kind string

const (
	KindAppointment Kind = "appointment"
	KindSalon       Kind = "salon"
	KindStaff       Kind = "staff"
	KindCustomer    Kind = "customer"
	KindBilling     Kind = "billing"
	KindService     Kind = "service"
	KindAnalytics   Kind = "analytics"

	// KindAny is the wildcard resource. Only the top administrative role
	// carries a grant for it.
	KindAny Kind = "*"
)

// Action is a closed enumeration of the operations a grant can cover.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"

	// ActionAny expands to all five concrete actions.
	ActionAny Action = "*"
)

// Actions lists the concrete actions a wildcard grant expands into.
func Actions() []Action {
	return []Action{ActionRead, ActionWrite, ActionUpdate, ActionDelete, ActionManage}
}

// Kinds lists every concrete resource kind.
func Kinds() []Kind {
	return []Kind{KindAppointment, KindSalon, KindStaff, KindCustomer, KindBilling, KindService, KindAnalytics}
}

// Permission is a single (kind, action) grant. Either side may be the
// wildcard.
type Permission struct {
	Kind   Kind
	Action Action
}

// Key renders the permission in the "kind:action" form used by audit
// entries and error messages.
func (p Permission) Key() string {
	return string(p.Kind) + ":" + string(p.Action)
}

// Implies reports whether the grant covers the given kind and action.
func (p Permission) Implies(kind Kind, action Action) bool {
	if p.Kind != KindAny && p.Kind != kind {
		return false
	}
	if p.Action != ActionAny && p.Action != action {
		return false
	}
	return true
}

// PermissionSet is the expanded, concrete permission set for one session.
// The universal flag is the collapsed form of a {*, *} grant and satisfies
// every check, including kinds added after expansion.
type PermissionSet struct {
	universal bool
	grants    map[Permission]struct{}
}

// Universal reports whether the set carries the universal-access sentinel.
func (s PermissionSet) Universal() bool {
	return s.universal
}

// Has reports whether the concrete (kind, action) pair is present.
func (s PermissionSet) Has(kind Kind, action Action) bool {
	if s.universal {
		return true
	}
	_, ok := s.grants[Permission{Kind: kind, Action: action}]
	return ok
}

// Len returns the number of concrete grants in the set.
func (s PermissionSet) Len() int {
	return len(s.grants)
}

// Merge returns a copy of the set with extra grants expanded in. This is
// the hook for per-identity custom grants; nothing loads such grants from
// storage yet.
func (s PermissionSet) Merge(extra []Permission) PermissionSet {
	out := PermissionSet{universal: s.universal, grants: make(map[Permission]struct{}, len(s.grants)+len(extra))}
	for g := range s.grants {
		out.grants[g] = struct{}{}
	}
	for _, p := range extra {
		expandInto(&out, p)
	}
	return out
}

// roleGrants is the static role → grant table. Wildcard actions are
// expanded eagerly by ExpandRole; the {*, *} grant collapses to the
// universal sentinel.
var roleGrants = map[Role][]Permission{
	RolePlatformAdmin: {
		{KindAny, ActionAny},
	},
	RoleSuperAdmin: {
		{KindSalon, ActionAny},
		{KindStaff, ActionAny},
		{KindCustomer, ActionAny},
		{KindAppointment, ActionAny},
		{KindBilling, ActionAny},
		{KindService, ActionAny},
		{KindAnalytics, ActionAny},
	},
	RoleAdmin: {
		{KindSalon, ActionRead},
		{KindSalon, ActionUpdate},
		{KindStaff, ActionAny},
		{KindCustomer, ActionAny},
		{KindAppointment, ActionAny},
		{KindBilling, ActionRead},
		{KindService, ActionAny},
		{KindAnalytics, ActionRead},
	},
	RoleOwner: {
		{KindSalon, ActionAny},
		{KindStaff, ActionAny},
		{KindCustomer, ActionAny},
		{KindAppointment, ActionAny},
		{KindBilling, ActionAny},
		{KindService, ActionAny},
		{KindAnalytics, ActionAny},
	},
	RoleManager: {
		{KindSalon, ActionRead},
		{KindStaff, ActionRead},
		{KindStaff, ActionUpdate},
		{KindCustomer, ActionAny},
		{KindAppointment, ActionAny},
		{KindBilling, ActionRead},
		{KindService, ActionAny},
		{KindAnalytics, ActionRead},
	},
	RoleStaff: {
		{KindAppointment, ActionAny},
		{KindCustomer, ActionRead},
		{KindService, ActionRead},
		{KindAnalytics, ActionRead},
	},
	RoleCustomer: {
		{KindAppointment, ActionRead},
		{KindAppointment, ActionWrite},
		{KindAppointment, ActionUpdate},
		{KindBilling, ActionRead},
		{KindService, ActionRead},
	},
	RoleGuest: {
		{KindService, ActionRead},
		{KindSalon, ActionRead},
	},
}

// ExpandRole produces the concrete permission set for a role. Expansion is
// pure and total: unknown roles map to the empty set.
func ExpandRole(role Role) PermissionSet {
	set := PermissionSet{grants: make(map[Permission]struct{})}
	for _, grant := range roleGrants[role] {
		expandInto(&set, grant)
	}
	return set
}

func expandInto(set *PermissionSet, grant Permission) {
	if grant.Kind == KindAny {
		set.universal = true
		return
	}
	if grant.Action == ActionAny {
		for _, a := range Actions() {
			set.grants[Permission{Kind: grant.Kind, Action: a}] = struct{}{}
		}
		return
	}
	set.grants[grant] = struct{}{}
}

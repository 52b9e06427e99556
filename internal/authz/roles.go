// Package authz holds the static role catalog and the pure authorization
// predicates every mutating request passes through. Nothing here touches
// storage or ambient request state; callers pass roles and identities
// explicitly so the package stays callable outside any web framework.
package authz

// Role is an immutable role identifier, compared by exact string equality.
type Role string

const (
	RoleAdmin            Role = "ADMIN"
	RoleAuthority        Role = "AUTHORITY"
	RoleCompanyRegistrar Role = "COMPANY_REGISTRAR"
	RoleLicenseReviewer  Role = "LICENSE_REVIEWER"
	RolePropertyOperator Role = "PROPERTY_OPERATOR"
	RoleVehicleOperator  Role = "VEHICLE_OPERATOR"
)

// LicenseType classifies the business license attached to an operator's
// company. It widens module access for the matching domain.
type LicenseType string

const (
	LicenseRealEstate LicenseType = "realEstate"
	LicenseCarSale    LicenseType = "carSale"
)

// Module is one of the closed set of business areas access rules scope to.
type Module string

const (
	ModuleCompany   Module = "company"
	ModuleProperty  Module = "property"
	ModuleVehicle   Module = "vehicle"
	ModuleReports   Module = "reports"
	ModuleDashboard Module = "dashboard"
	ModuleUsers     Module = "users"
)

// Permission is a string token granted to a role.
type Permission string

const (
	PermPropertyView    Permission = "property.view"
	PermPropertyViewOwn Permission = "property.view.own"
	PermPropertyCreate  Permission = "property.create"
	PermPropertyEdit    Permission = "property.edit"
	PermPropertyEditOwn Permission = "property.edit.own"
	PermPropertyDelete  Permission = "property.delete"

	PermVehicleView    Permission = "vehicle.view"
	PermVehicleViewOwn Permission = "vehicle.view.own"
	PermVehicleCreate  Permission = "vehicle.create"
	PermVehicleEdit    Permission = "vehicle.edit"
	PermVehicleEditOwn Permission = "vehicle.edit.own"
	PermVehicleDelete  Permission = "vehicle.delete"

	PermCompanyView   Permission = "company.view"
	PermCompanyCreate Permission = "company.create"
	PermCompanyEdit   Permission = "company.edit"
	PermCompanyDelete Permission = "company.delete"

	PermReportsView   Permission = "reports.view"
	PermDashboardView Permission = "dashboard.view"
	PermUsersManage   Permission = "users.manage"
)

// PermissionSet is a lookup set of permission tokens.
type PermissionSet map[Permission]struct{}

// Has reports whether the set contains the permission.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// roleCatalog is the fixed role→permission table, set at deploy time. It is
// attached as claims at authentication time; runtime decisions go through the
// engine predicates rather than string lookups.
var roleCatalog = map[Role][]Permission{
	RoleAdmin: {
		PermPropertyView, PermPropertyCreate, PermPropertyEdit, PermPropertyDelete,
		PermVehicleView, PermVehicleCreate, PermVehicleEdit, PermVehicleDelete,
		PermCompanyView, PermCompanyCreate, PermCompanyEdit, PermCompanyDelete,
		PermReportsView, PermDashboardView, PermUsersManage,
	},
	RoleAuthority: {
		PermPropertyView, PermVehicleView, PermCompanyView,
		PermReportsView, PermDashboardView,
	},
	RoleCompanyRegistrar: {
		PermCompanyView, PermCompanyCreate, PermCompanyEdit,
		PermPropertyView, PermVehicleView,
		PermReportsView, PermDashboardView,
	},
	RoleLicenseReviewer: {
		PermCompanyView,
	},
	RolePropertyOperator: {
		PermPropertyViewOwn, PermPropertyCreate, PermPropertyEditOwn,
		PermReportsView, PermDashboardView,
	},
	RoleVehicleOperator: {
		PermVehicleViewOwn, PermVehicleCreate, PermVehicleEditOwn,
		PermReportsView, PermDashboardView,
	},
}

// allRoles enumerates the catalog in a stable order for seeding and claims
// issuance. Runtime decisions never iterate it.
var allRoles = []Role{
	RoleAdmin,
	RoleAuthority,
	RoleCompanyRegistrar,
	RoleLicenseReviewer,
	RolePropertyOperator,
	RoleVehicleOperator,
}

// PermissionsFor returns the permission set granted to a role. An unknown
// role yields an empty set, never an error; new roles added by configuration
// must not break existing callers.
func PermissionsFor(role Role) PermissionSet {
	perms := roleCatalog[role]
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// AllRoles returns the known roles in a stable order.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Caller is the authenticated identity the authentication layer hands us.
// Roles are in claim order; ProfileRole is the fallback stored on the
// caller's profile when the claim list is empty.
type Caller struct {
	ID          string
	Roles       []Role
	ProfileRole Role
	LicenseType LicenseType
}

// PrimaryRole is the role used for permission resolution: the first role in
// the set, or the profile fallback.
func (c Caller) PrimaryRole() Role {
	if len(c.Roles) > 0 {
		return c.Roles[0]
	}
	return c.ProfileRole
}

// Permissions resolves the caller's primary role against the catalog.
func (c Caller) Permissions() PermissionSet {
	return PermissionsFor(c.PrimaryRole())
}

package authz

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

// =============================================================================
// Authorization Engine Test Suite
// =============================================================================
// The predicates are pure and total, so every rule is exercised directly with
// role-set inputs rather than through HTTP round-trips.

type EngineSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// =============================================================================
// Module Access
// =============================================================================

func (s *EngineSuite) TestCanAccessModule() {
	s.Run("admin reaches every module", func() {
		for _, m := range []Module{ModuleProperty, ModuleVehicle, ModuleCompany, ModuleReports, ModuleDashboard, ModuleUsers} {
			s.True(CanAccessModule([]Role{RoleAdmin}, "", m), "module %s", m)
		}
	})

	s.Run("authority reaches everything except users", func() {
		for _, m := range []Module{ModuleProperty, ModuleVehicle, ModuleCompany, ModuleReports, ModuleDashboard} {
			s.True(CanAccessModule([]Role{RoleAuthority}, "", m), "module %s", m)
		}
		s.False(CanAccessModule([]Role{RoleAuthority}, "", ModuleUsers))
	})

	s.Run("operators are confined to their own domain", func() {
		s.True(CanAccessModule([]Role{RolePropertyOperator}, "", ModuleProperty))
		s.False(CanAccessModule([]Role{RolePropertyOperator}, "", ModuleVehicle))
		s.True(CanAccessModule([]Role{RoleVehicleOperator}, "", ModuleVehicle))
		s.False(CanAccessModule([]Role{RoleVehicleOperator}, "", ModuleProperty))
	})

	s.Run("license type widens domain access", func() {
		s.True(CanAccessModule([]Role{RoleVehicleOperator}, LicenseRealEstate, ModuleProperty))
		s.True(CanAccessModule([]Role{RolePropertyOperator}, LicenseCarSale, ModuleVehicle))
		s.False(CanAccessModule([]Role{RoleVehicleOperator}, LicenseCarSale, ModuleProperty))
	})

	s.Run("company registrar sees both transaction domains and company", func() {
		s.True(CanAccessModule([]Role{RoleCompanyRegistrar}, "", ModuleProperty))
		s.True(CanAccessModule([]Role{RoleCompanyRegistrar}, "", ModuleVehicle))
		s.True(CanAccessModule([]Role{RoleCompanyRegistrar}, "", ModuleCompany))
	})

	s.Run("license reviewer reaches company only", func() {
		s.True(CanAccessModule([]Role{RoleLicenseReviewer}, "", ModuleCompany))
		s.False(CanAccessModule([]Role{RoleLicenseReviewer}, "", ModuleProperty))
		s.False(CanAccessModule([]Role{RoleLicenseReviewer}, "", ModuleReports))
		s.False(CanAccessModule([]Role{RoleLicenseReviewer}, "", ModuleDashboard))
	})

	s.Run("reports open to any other recognized role", func() {
		s.True(CanAccessModule([]Role{RolePropertyOperator}, "", ModuleReports))
		s.True(CanAccessModule([]Role{RoleVehicleOperator}, "", ModuleDashboard))
		s.True(CanAccessModule([]Role{RoleCompanyRegistrar}, "", ModuleReports))
	})

	s.Run("users module is admin only", func() {
		s.True(CanAccessModule([]Role{RoleAdmin}, "", ModuleUsers))
		for _, r := range []Role{RoleAuthority, RoleCompanyRegistrar, RoleLicenseReviewer, RolePropertyOperator, RoleVehicleOperator} {
			s.False(CanAccessModule([]Role{r}, "", ModuleUsers), "role %s", r)
		}
	})

	s.Run("empty role set is denied everywhere", func() {
		for _, m := range []Module{ModuleProperty, ModuleVehicle, ModuleCompany, ModuleReports, ModuleDashboard, ModuleUsers} {
			s.False(CanAccessModule(nil, "", m), "module %s", m)
		}
	})

	s.Run("unknown module is denied even for multi-role callers", func() {
		s.False(CanAccessModule([]Role{RolePropertyOperator, RoleVehicleOperator}, "", Module("unknown")))
	})
}

// =============================================================================
// View Scope
// =============================================================================

func (s *EngineSuite) TestCanViewAll() {
	s.Run("admin and authority see everything", func() {
		s.True(CanViewAll([]Role{RoleAdmin}, ModuleProperty))
		s.True(CanViewAll([]Role{RoleAuthority}, ModuleVehicle))
	})

	s.Run("registrar has oversight over transactions and companies", func() {
		s.True(CanViewAll([]Role{RoleCompanyRegistrar}, ModuleProperty))
		s.True(CanViewAll([]Role{RoleCompanyRegistrar}, ModuleVehicle))
		s.True(CanViewAll([]Role{RoleCompanyRegistrar}, ModuleCompany))
	})

	s.Run("reviewer oversight is company only", func() {
		s.True(CanViewAll([]Role{RoleLicenseReviewer}, ModuleCompany))
		s.False(CanViewAll([]Role{RoleLicenseReviewer}, ModuleProperty))
	})

	s.Run("operators see only their own records", func() {
		s.False(CanViewAll([]Role{RolePropertyOperator}, ModuleProperty))
		s.False(CanViewAll([]Role{RoleVehicleOperator}, ModuleVehicle))
	})

	s.Run("authority oversight does not reach user administration", func() {
		s.False(CanViewAll([]Role{RoleAuthority}, ModuleUsers))
		s.True(CanViewAll([]Role{RoleAdmin}, ModuleUsers))
	})
}

// View-all is a widening of module access, never a separate grant: whoever
// sees everything in a module must be able to enter it in the first place.
func (s *EngineSuite) TestViewAllImpliesModuleAccess() {
	modules := []Module{ModuleProperty, ModuleVehicle, ModuleCompany, ModuleReports, ModuleDashboard, ModuleUsers, Module("unknown")}
	roleSets := [][]Role{nil}
	for _, r := range AllRoles() {
		roleSets = append(roleSets, []Role{r})
	}
	for _, r := range AllRoles() {
		for _, other := range AllRoles() {
			if r != other {
				roleSets = append(roleSets, []Role{r, other})
			}
		}
	}

	for _, roles := range roleSets {
		for _, m := range modules {
			if CanViewAll(roles, m) {
				s.True(CanAccessModule(roles, "", m),
					"roles %v module %s: view-all granted without module access", roles, m)
			}
		}
	}
}

func (s *EngineSuite) TestScopeQuery() {
	s.Run("view-all scope has no creator filter", func() {
		scope := ScopeQuery([]Role{RoleAdmin}, ModuleProperty, "u-1")
		s.True(scope.ViewAll)
		s.True(scope.Matches("anyone"))
	})

	s.Run("restricted scope filters to the caller", func() {
		scope := ScopeQuery([]Role{RolePropertyOperator}, ModuleProperty, "u-1")
		s.False(scope.ViewAll)
		s.Equal("u-1", scope.CreatedBy)
		s.True(scope.Matches("u-1"))
		s.False(scope.Matches("u-2"))
	})
}

// =============================================================================
// Create / Edit / Delete
// =============================================================================

func (s *EngineSuite) TestCanCreate() {
	s.Run("admin creates anywhere", func() {
		s.True(CanCreate([]Role{RoleAdmin}, ModuleProperty))
		s.True(CanCreate([]Role{RoleAdmin}, ModuleCompany))
	})

	s.Run("authority and reviewer are read only", func() {
		s.False(CanCreate([]Role{RoleAuthority}, ModuleProperty))
		s.False(CanCreate([]Role{RoleLicenseReviewer}, ModuleCompany))
	})

	s.Run("operators create in their own domain only", func() {
		s.True(CanCreate([]Role{RolePropertyOperator}, ModuleProperty))
		s.False(CanCreate([]Role{RolePropertyOperator}, ModuleVehicle))
		s.True(CanCreate([]Role{RoleCompanyRegistrar}, ModuleCompany))
	})

	s.Run("no one creates in reports or dashboard", func() {
		s.False(CanCreate([]Role{RolePropertyOperator}, ModuleReports))
		s.False(CanCreate([]Role{RoleCompanyRegistrar}, ModuleDashboard))
	})
}

func (s *EngineSuite) TestCanEdit() {
	s.Run("admin edits any record", func() {
		s.True(CanEdit([]Role{RoleAdmin}, ModuleProperty, "someone-else", "admin-1"))
	})

	s.Run("operator edits only records they created", func() {
		s.True(CanEdit([]Role{RolePropertyOperator}, ModuleProperty, "u-1", "u-1"))
		s.False(CanEdit([]Role{RolePropertyOperator}, ModuleProperty, "u-2", "u-1"))
	})

	s.Run("registrar edits companies regardless of creator", func() {
		s.True(CanEdit([]Role{RoleCompanyRegistrar}, ModuleCompany, "u-2", "u-1"))
	})

	s.Run("authority and reviewer never edit", func() {
		s.False(CanEdit([]Role{RoleAuthority}, ModuleProperty, "u-1", "u-1"))
		s.False(CanEdit([]Role{RoleLicenseReviewer}, ModuleCompany, "u-1", "u-1"))
	})
}

func (s *EngineSuite) TestCanDelete() {
	s.Run("delete is admin only", func() {
		s.True(CanDelete([]Role{RoleAdmin}, ModuleProperty))
		for _, r := range []Role{RoleAuthority, RoleCompanyRegistrar, RoleLicenseReviewer, RolePropertyOperator, RoleVehicleOperator} {
			s.False(CanDelete([]Role{r}, ModuleProperty), "role %s", r)
		}
	})
}

// =============================================================================
// Role Catalog
// =============================================================================

func (s *EngineSuite) TestPermissionsFor() {
	s.Run("unknown role has no permissions", func() {
		s.Empty(PermissionsFor(Role("made-up")))
	})

	s.Run("every catalog role resolves to a permission set", func() {
		for _, r := range AllRoles() {
			s.NotNil(PermissionsFor(r), "role %s", r)
		}
	})
}

func (s *EngineSuite) TestCallerPrimaryRole() {
	s.Run("first role wins", func() {
		c := Caller{Roles: []Role{RoleAuthority, RoleAdmin}, ProfileRole: RolePropertyOperator}
		s.Equal(RoleAuthority, c.PrimaryRole())
	})

	s.Run("profile role is the fallback", func() {
		c := Caller{ProfileRole: RolePropertyOperator}
		s.Equal(RolePropertyOperator, c.PrimaryRole())
	})
}

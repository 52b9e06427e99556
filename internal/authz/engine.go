package authz

// The engine predicates are total functions: every input, including empty
// role sets and unrecognized modules, returns a deterministic restricted
// result rather than an error. Controllers translate a false result into an
// HTTP rejection; this package knows nothing about status codes.

func hasRole(roles []Role, want Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

// operatorRoleFor maps a domain module to its dedicated operator/registrar
// role. Modules without one return the empty role.
func operatorRoleFor(module Module) Role {
	switch module {
	case ModuleProperty:
		return RolePropertyOperator
	case ModuleVehicle:
		return RoleVehicleOperator
	case ModuleCompany:
		return RoleCompanyRegistrar
	default:
		return ""
	}
}

// licenseFor maps a domain module to the license type that grants access to it.
func licenseFor(module Module) LicenseType {
	switch module {
	case ModuleProperty:
		return LicenseRealEstate
	case ModuleVehicle:
		return LicenseCarSale
	default:
		return ""
	}
}

// CanAccessModule decides whether a caller with the given roles and license
// type may enter a module at all.
func CanAccessModule(roles []Role, licenseType LicenseType, module Module) bool {
	// User administration is admin-only; the blanket authority grant does not
	// reach it.
	if module == ModuleUsers {
		return hasRole(roles, RoleAdmin)
	}
	if hasRole(roles, RoleAdmin) || hasRole(roles, RoleAuthority) {
		return true
	}
	switch module {
	case ModuleProperty, ModuleVehicle:
		// Operators reach their own domain; a matching company license widens
		// access; the registrar may view both domains for licensing oversight.
		if hasRole(roles, operatorRoleFor(module)) {
			return true
		}
		if licenseType != "" && licenseType == licenseFor(module) {
			return true
		}
		return hasRole(roles, RoleCompanyRegistrar)
	case ModuleCompany:
		return hasRole(roles, RoleCompanyRegistrar) || hasRole(roles, RoleLicenseReviewer)
	case ModuleReports, ModuleDashboard:
		// Open to every recognized caller except the license reviewer.
		for _, r := range roles {
			if r != RoleLicenseReviewer {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CanViewAll decides whether the caller sees every record in the module or
// only records they created. View-all never exceeds module access: a caller
// who cannot enter a module sees nothing in it.
func CanViewAll(roles []Role, module Module) bool {
	if module == ModuleUsers {
		return hasRole(roles, RoleAdmin)
	}
	if hasRole(roles, RoleAdmin) || hasRole(roles, RoleAuthority) {
		return true
	}
	switch module {
	case ModuleProperty, ModuleVehicle:
		return hasRole(roles, RoleCompanyRegistrar)
	case ModuleCompany:
		return hasRole(roles, RoleCompanyRegistrar) || hasRole(roles, RoleLicenseReviewer)
	default:
		return false
	}
}

// CanCreate decides whether the caller may register new records in the module.
func CanCreate(roles []Role, module Module) bool {
	if hasRole(roles, RoleAdmin) {
		return true
	}
	if hasRole(roles, RoleAuthority) || hasRole(roles, RoleLicenseReviewer) {
		return false
	}
	op := operatorRoleFor(module)
	if op == "" {
		return false
	}
	return hasRole(roles, op)
}

// CanEdit decides whether the caller may modify an existing record.
// Operators may never edit another operator's record, even within the same
// company; ownership is the record's immutable created-by identity.
func CanEdit(roles []Role, module Module, ownerOfRecord, callerID string) bool {
	if hasRole(roles, RoleAdmin) {
		return true
	}
	if hasRole(roles, RoleAuthority) || hasRole(roles, RoleLicenseReviewer) {
		return false
	}
	switch module {
	case ModuleCompany:
		return hasRole(roles, RoleCompanyRegistrar)
	case ModuleProperty, ModuleVehicle:
		return hasRole(roles, operatorRoleFor(module)) && ownerOfRecord == callerID
	default:
		return false
	}
}

// CanDelete is a hard rule with no module-specific exception.
func CanDelete(roles []Role, module Module) bool {
	return hasRole(roles, RoleAdmin)
}

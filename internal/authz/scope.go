package authz

// Scope narrows a module query to what the caller may see. It is applied at
// the query layer before any pagination or projection.
//
// The duplicate-active-transaction scan is explicitly exempt: that invariant
// is system-wide, so the guard always searches the full side table regardless
// of who is asking.
type Scope struct {
	// ViewAll means no filtering is applied.
	ViewAll bool
	// CreatedBy restricts the query to records created by this caller when
	// ViewAll is false.
	CreatedBy string
}

// ScopeQuery translates an authorization decision into a query scope: the
// identity predicate for callers who may view everything, otherwise a
// created-by filter on the caller's own records.
func ScopeQuery(roles []Role, module Module, callerID string) Scope {
	if CanViewAll(roles, module) {
		return Scope{ViewAll: true}
	}
	return Scope{CreatedBy: callerID}
}

// Matches reports whether a record with the given creator is visible under
// the scope. Stores use it for in-memory filtering; SQL paths translate the
// scope into a WHERE clause instead.
func (s Scope) Matches(createdBy string) bool {
	if s.ViewAll {
		return true
	}
	return createdBy == s.CreatedBy
}

// Package audit implements field-level change auditing: an explicit
// two-snapshot diff plus append-only sinks, one per tracked entity kind.
// It is a pure data transformation over snapshots and depends on no ORM.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the parent entity type an entry belongs to. The mapping
// kind→sink table is fixed and known at compile time.
type Kind string

const (
	KindProperty       Kind = "property"
	KindPropertySeller Kind = "property_seller"
	KindPropertyBuyer  Kind = "property_buyer"
	KindVehicle        Kind = "vehicle"
	KindVehicleSeller  Kind = "vehicle_seller"
	KindVehicleBuyer   Kind = "vehicle_buyer"
	KindCompany        Kind = "company"
)

// Snapshot is an entity's field values keyed by field name, stringified.
// A nil value means the field is unset. Entities expose a Snapshot() method
// that enumerates their auditable fields explicitly.
type Snapshot map[string]*string

// FieldChange is one field's old/new value pair from a diff.
type FieldChange struct {
	Field string
	Old   *string
	New   *string
}

// Entry is a single durable, attributable field change. Entries are
// append-only: created once per modified field per update, never mutated.
type Entry struct {
	ID        uuid.UUID
	Kind      Kind
	EntityID  uuid.UUID
	Field     string
	OldValue  *string
	NewValue  *string
	UpdatedBy string
	UpdatedAt time.Time
}

// Sink persists audit entries. Implementations must treat the slice as one
// logical change-set: either all entries land or the error surfaces.
type Sink interface {
	Append(ctx context.Context, entries []Entry) error
}

// String boxes a string for snapshot values.
func String(s string) *string { return &s }

// StringOrNil boxes a non-empty string, mapping "" to an unset field.
func StringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

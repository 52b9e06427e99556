package audit

import "sort"

// Field names that never participate in a diff. Services restore these to
// their persisted values before computing snapshots, so a client payload can
// neither overwrite them nor make them show up as a change. The diff skips
// them regardless, as a second line of defense.
const (
	FieldCreatedBy = "created_by"
	FieldCreatedAt = "created_at"
)

func excluded(field string) bool {
	return field == FieldCreatedBy || field == FieldCreatedAt
}

func equalValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Diff compares two snapshots field by field and returns the changes.
//
// A change is emitted only when the field is present in both snapshots, the
// old value is set, and the values differ: a nil-to-value transition is the
// field being populated for the first time, not a correction, and produces
// nothing. Results are sorted by field name for stable output; each change is
// independent, so order never affects correctness.
func Diff(old, new Snapshot) []FieldChange {
	var changes []FieldChange
	for field, oldVal := range old {
		if excluded(field) {
			continue
		}
		newVal, ok := new[field]
		if !ok {
			continue
		}
		if oldVal == nil {
			continue
		}
		if equalValue(oldVal, newVal) {
			continue
		}
		changes = append(changes, FieldChange{Field: field, Old: oldVal, New: newVal})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

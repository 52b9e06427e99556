package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// sinkTables is the fixed mapping from entity kind to audit table. Adding a
// tracked entity means adding exactly one row here and one table migration.
var sinkTables = map[Kind]string{
	KindProperty:       "property_audits",
	KindPropertySeller: "property_seller_audits",
	KindPropertyBuyer:  "property_buyer_audits",
	KindVehicle:        "vehicle_audits",
	KindVehicleSeller:  "vehicle_seller_audits",
	KindVehicleBuyer:   "vehicle_buyer_audits",
	KindCompany:        "company_audits",
}

// PostgresSink persists audit entries to per-kind tables and stages a copy in
// the audit outbox for the Kafka relay. The change-set is written in one
// transaction so a partial audit trail can never be observed.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// outboxPayload is the JSON shape the relay publishes.
type outboxPayload struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	EntityID  string  `json:"entity_id"`
	Field     string  `json:"field"`
	OldValue  *string `json:"old_value"`
	NewValue  *string `json:"new_value"`
	UpdatedBy string  `json:"updated_by"`
	UpdatedAt string  `json:"updated_at"`
}

func (s *PostgresSink) Append(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, e := range entries {
		table, ok := sinkTables[e.Kind]
		if !ok {
			return fmt.Errorf("no audit sink table for kind %q", e.Kind)
		}

		query := fmt.Sprintf(`
			INSERT INTO %s (id, entity_id, field, old_value, new_value, updated_by, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, table)
		if _, err := tx.ExecContext(ctx, query,
			e.ID, e.EntityID, e.Field, e.OldValue, e.NewValue, e.UpdatedBy, e.UpdatedAt,
		); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}

		payload, err := json.Marshal(outboxPayload{
			ID:        e.ID.String(),
			Kind:      string(e.Kind),
			EntityID:  e.EntityID.String(),
			Field:     e.Field,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			UpdatedBy: e.UpdatedBy,
			UpdatedAt: e.UpdatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return fmt.Errorf("marshal audit outbox payload: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO audit_outbox (id, kind, payload, created_at)
			VALUES ($1, $2, $3, $4)
		`, e.ID, string(e.Kind), payload, e.UpdatedAt); err != nil {
			return fmt.Errorf("stage audit outbox row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit tx: %w", err)
	}
	return nil
}

// ListByEntity returns the persisted entries for one entity, oldest first.
func (s *PostgresSink) ListByEntity(ctx context.Context, kind Kind, entityID uuid.UUID) ([]Entry, error) {
	table, ok := sinkTables[kind]
	if !ok {
		return nil, fmt.Errorf("no audit sink table for kind %q", kind)
	}
	query := fmt.Sprintf(`
		SELECT id, entity_id, field, old_value, new_value, updated_by, updated_at
		FROM %s
		WHERE entity_id = $1
		ORDER BY updated_at, field
	`, table)
	rows, err := s.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e := Entry{Kind: kind}
		if err := rows.Scan(&e.ID, &e.EntityID, &e.Field, &e.OldValue, &e.NewValue, &e.UpdatedBy, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

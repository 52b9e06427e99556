package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	dErrors "tasjeel/pkg/domain-errors"
)

var tracer = otel.Tracer("tasjeel/registry/audit")

// Auditor turns snapshot diffs into persisted audit entries. It is stateless
// and safe for concurrent use.
type Auditor struct {
	sink   Sink
	logger *slog.Logger
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) { a.logger = logger }
}

// New constructs an Auditor writing change-sets to sink.
func New(sink Sink, opts ...Option) (*Auditor, error) {
	if sink == nil {
		return nil, fmt.Errorf("audit sink is required")
	}
	a := &Auditor{sink: sink}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Record diffs the two snapshots and appends one entry per changed field.
// Every entry of the change-set shares the same actor and timestamp, which is
// what ties the rows together as one logical update without a transaction id.
//
// A sink failure after the primary entity write has succeeded means an audit
// gap may exist; it is returned as a fatal audit-write error and must never
// be swallowed by the caller.
func (a *Auditor) Record(ctx context.Context, kind Kind, entityID uuid.UUID, old, new Snapshot, actor string, at time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "audit.record")
	defer span.End()
	span.SetAttributes(
		attribute.String("audit.kind", string(kind)),
		attribute.String("audit.entity_id", entityID.String()),
	)

	changes := Diff(old, new)
	if len(changes) == 0 {
		return 0, nil
	}

	entries := make([]Entry, 0, len(changes))
	for _, c := range changes {
		entries = append(entries, Entry{
			ID:        uuid.New(),
			Kind:      kind,
			EntityID:  entityID,
			Field:     c.Field,
			OldValue:  c.Old,
			NewValue:  c.New,
			UpdatedBy: actor,
			UpdatedAt: at,
		})
	}

	if err := a.sink.Append(ctx, entries); err != nil {
		if a.logger != nil {
			a.logger.ErrorContext(ctx, "audit change-set write failed",
				"kind", kind,
				"entity_id", entityID,
				"fields", len(entries),
				"error", err,
			)
		}
		return 0, dErrors.Wrap(err, dErrors.CodeAuditFailure, "failed to persist audit entries")
	}

	if a.logger != nil {
		a.logger.InfoContext(ctx, "audit change-set recorded",
			"kind", kind,
			"entity_id", entityID,
			"fields", len(entries),
			"updated_by", actor,
		)
	}
	return len(entries), nil
}

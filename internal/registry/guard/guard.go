// Package guard enforces the at-most-one-active-transaction-per-identity
// invariant. The check is system-wide: it always scans the full side table,
// never the caller-scoped view, and re-evaluates the cancellation join on
// every call so cancelling a blocking transaction unblocks the identity
// immediately.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tasjeel/internal/registry/models"
	dErrors "tasjeel/pkg/domain-errors"
	"tasjeel/pkg/platform/sentinel"
)

var tracer = otel.Tracer("tasjeel/registry/guard")

// Identity is the name triple duplicate detection keys on.
type Identity struct {
	FirstName   string
	FatherName  string
	GrandFather string
}

// Normalize trims each component. Empty and unset are the same identity
// component after normalization.
func (id Identity) Normalize() Identity {
	return Identity{
		FirstName:   strings.TrimSpace(id.FirstName),
		FatherName:  strings.TrimSpace(id.FatherName),
		GrandFather: strings.TrimSpace(id.GrandFather),
	}
}

// Key renders the normalized identity as a stable lock/compare key.
func (id Identity) Key() string {
	n := id.Normalize()
	return n.FirstName + "|" + n.FatherName + "|" + n.GrandFather
}

// Conflict is one existing live restricted transaction matching an identity.
type Conflict struct {
	PartyID             uuid.UUID
	ParentID            uuid.UUID
	TransactionTypeID   int64
	TransactionTypeName string
}

// ConflictStore scans a domain's side table for live restricted transactions
// matching a normalized identity. Implementations must exclude parents that
// have a cancellation record, and must not apply any ownership scope.
type ConflictStore interface {
	FindActiveConflicts(ctx context.Context, domain models.Domain, side models.Side, identity Identity, restrictedTypeIDs []int64, excludePartyID uuid.UUID) ([]Conflict, error)
}

// Config fixes the restricted transaction-type ID sets per domain. The sets
// are deploy-time configuration, enumerated explicitly.
type Config struct {
	RestrictedTypeIDs map[models.Domain][]int64
}

// DefaultConfig matches the seeded lookup tables: sale, rent and revocable
// sale are restricted in both domains.
func DefaultConfig() Config {
	return Config{
		RestrictedTypeIDs: map[models.Domain][]int64{
			models.DomainProperty: {models.TxTypePropertySale, models.TxTypePropertyRent, models.TxTypePropertyRevocableSale},
			models.DomainVehicle:  {models.TxTypeVehicleSale, models.TxTypeVehicleRent, models.TxTypeVehicleRevocableSale},
		},
	}
}

// CheckRequest describes a proposed party write.
type CheckRequest struct {
	Domain            models.Domain
	Side              models.Side
	Identity          Identity
	TransactionTypeID int64
	// ExcludePartyID is the party row being edited, so an update never
	// conflicts with itself. Zero on create.
	ExcludePartyID uuid.UUID
}

// Result is the outcome of a duplicate check. MatchedTypeName names the
// conflicting transaction type for the caller-facing message.
type Result struct {
	Duplicate       bool
	MatchedTypeName string
}

// Guard evaluates duplicate checks and hands out the identity advisory locks
// that make check-then-write safe under concurrency.
type Guard struct {
	store  ConflictStore
	locker Locker
	cfg    Config
	logger *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

// WithConfig overrides the restricted-type sets.
func WithConfig(cfg Config) Option {
	return func(g *Guard) {
		if len(cfg.RestrictedTypeIDs) > 0 {
			g.cfg = cfg
		}
	}
}

// New constructs a Guard. The locker is mandatory: running the check without
// the lock reintroduces the check-then-insert race.
func New(store ConflictStore, locker Locker, opts ...Option) (*Guard, error) {
	if store == nil {
		return nil, fmt.Errorf("conflict store is required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	g := &Guard{store: store, locker: locker, cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Restricted reports whether the type ID is in the domain's restricted set.
func (g *Guard) Restricted(domain models.Domain, typeID int64) bool {
	for _, id := range g.cfg.RestrictedTypeIDs[domain] {
		if id == typeID {
			return true
		}
	}
	return false
}

// Check decides whether accepting the proposed write would violate the
// active-transaction invariant. An unrestricted transaction type is never
// blocked, whatever restricted transactions the same identity has elsewhere.
func (g *Guard) Check(ctx context.Context, req CheckRequest) (Result, error) {
	ctx, span := tracer.Start(ctx, "guard.check")
	defer span.End()
	span.SetAttributes(
		attribute.String("guard.domain", string(req.Domain)),
		attribute.String("guard.side", string(req.Side)),
		attribute.Int64("guard.transaction_type_id", req.TransactionTypeID),
	)

	if !g.Restricted(req.Domain, req.TransactionTypeID) {
		return Result{}, nil
	}

	identity := req.Identity.Normalize()
	conflicts, err := g.store.FindActiveConflicts(ctx, req.Domain, req.Side, identity, g.cfg.RestrictedTypeIDs[req.Domain], req.ExcludePartyID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeConcurrencyConflict) {
			return Result{}, err
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "duplicate scan failed")
	}
	if len(conflicts) == 0 {
		return Result{}, nil
	}

	if g.logger != nil {
		g.logger.InfoContext(ctx, "duplicate active transaction rejected",
			"domain", req.Domain,
			"side", req.Side,
			"matched_type", conflicts[0].TransactionTypeName,
			"matched_parent", conflicts[0].ParentID,
		)
	}
	return Result{Duplicate: true, MatchedTypeName: conflicts[0].TransactionTypeName}, nil
}

// LockKey derives the advisory-lock key for one proposed party write.
func LockKey(domain models.Domain, side models.Side, identity Identity) string {
	return "guard:" + string(domain) + ":" + string(side) + ":" + identity.Key()
}

// WithLocks acquires every key (deduplicated, sorted), runs fn, and releases
// unconditionally on all exit paths. Acquisition is non-blocking: a held lock
// means a concurrent writer is mid-flight on the same identity, surfaced as a
// retryable concurrency conflict rather than a business-rule violation.
//
// The callback must only cover the check-and-write sequence; never hold the
// locks across unrelated round-trips.
func (g *Guard) WithLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	seen := make(map[string]struct{}, len(keys))
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	sort.Strings(uniq)

	var releases []func()
	defer func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}()

	for _, key := range uniq {
		release, err := g.locker.Acquire(ctx, key)
		if err != nil {
			if errors.Is(err, sentinel.ErrLockUnavailable) {
				return dErrors.Wrap(err, dErrors.CodeConcurrencyConflict, "a concurrent registration for this identity is in progress")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire identity lock")
		}
		releases = append(releases, release)
	}

	return fn(ctx)
}

// Package store provides the registry's persistence implementations: an
// in-memory store for tests and development, and a PostgreSQL store for
// production. Both also implement the guard's conflict scan, which always
// runs unscoped.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/guard"
	"tasjeel/internal/registry/models"
	"tasjeel/pkg/platform/sentinel"
)

// InMemory holds the whole registry in process memory behind one mutex.
// Lookup types are seeded at construction.
type InMemory struct {
	mu            sync.RWMutex
	properties    map[uuid.UUID]models.Property
	vehicles      map[uuid.UUID]models.Vehicle
	companies     map[uuid.UUID]models.Company
	parties       map[uuid.UUID]models.Party
	cancellations map[uuid.UUID]models.Cancellation
	txTypes       map[int64]models.TransactionType
}

func NewInMemory() *InMemory {
	s := &InMemory{
		properties:    make(map[uuid.UUID]models.Property),
		vehicles:      make(map[uuid.UUID]models.Vehicle),
		companies:     make(map[uuid.UUID]models.Company),
		parties:       make(map[uuid.UUID]models.Party),
		cancellations: make(map[uuid.UUID]models.Cancellation),
		txTypes:       make(map[int64]models.TransactionType),
	}
	for _, tt := range models.SeedTransactionTypes() {
		s.txTypes[tt.ID] = tt
	}
	return s
}

// -----------------------------------------------------------------------------
// Lookup types
// -----------------------------------------------------------------------------

func (s *InMemory) TransactionType(_ context.Context, id int64) (models.TransactionType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tt, ok := s.txTypes[id]
	if !ok {
		return models.TransactionType{}, sentinel.ErrNotFound
	}
	return tt, nil
}

func (s *InMemory) TransactionTypes(_ context.Context, domain models.Domain) ([]models.TransactionType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TransactionType
	for _, tt := range s.txTypes {
		if tt.Domain == domain {
			out = append(out, tt)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Properties
// -----------------------------------------------------------------------------

func (s *InMemory) CreateProperty(_ context.Context, p *models.Property, parties []models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.properties[p.ID] = *p
	for _, party := range parties {
		s.parties[party.ID] = party
	}
	return nil
}

func (s *InMemory) GetProperty(_ context.Context, id uuid.UUID) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemory) ListProperties(_ context.Context, scope authz.Scope) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Property
	for _, p := range s.properties {
		if scope.Matches(p.CreatedBy) {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemory) UpdateProperty(_ context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.properties[p.ID] = *p
	return nil
}

func (s *InMemory) DeleteProperty(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.properties, id)
	for pid, party := range s.parties {
		if party.Domain == models.DomainProperty && party.ParentID == id {
			delete(s.parties, pid)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Vehicles
// -----------------------------------------------------------------------------

func (s *InMemory) CreateVehicle(_ context.Context, v *models.Vehicle, parties []models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[v.ID]; ok {
		return sentinel.ErrConflict
	}
	s.vehicles[v.ID] = *v
	for _, party := range parties {
		s.parties[party.ID] = party
	}
	return nil
}

func (s *InMemory) GetVehicle(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &v, nil
}

func (s *InMemory) ListVehicles(_ context.Context, scope authz.Scope) ([]*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Vehicle
	for _, v := range s.vehicles {
		if scope.Matches(v.CreatedBy) {
			cp := v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemory) UpdateVehicle(_ context.Context, v *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[v.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.vehicles[v.ID] = *v
	return nil
}

func (s *InMemory) DeleteVehicle(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.vehicles, id)
	for pid, party := range s.parties {
		if party.Domain == models.DomainVehicle && party.ParentID == id {
			delete(s.parties, pid)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Companies
// -----------------------------------------------------------------------------

func (s *InMemory) CreateCompany(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[c.ID]; ok {
		return sentinel.ErrConflict
	}
	if s.licenseTakenLocked(c.LicenseNo, c.ID) {
		return sentinel.ErrConflict
	}
	s.companies[c.ID] = *c
	return nil
}

// licenseTakenLocked mirrors the unique constraint on company license
// numbers in the PostgreSQL schema.
func (s *InMemory) licenseTakenLocked(licenseNo string, selfID uuid.UUID) bool {
	for _, existing := range s.companies {
		if existing.LicenseNo == licenseNo && existing.ID != selfID {
			return true
		}
	}
	return false
}

func (s *InMemory) GetCompany(_ context.Context, id uuid.UUID) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemory) ListCompanies(_ context.Context, scope authz.Scope) ([]*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Company
	for _, c := range s.companies {
		if scope.Matches(c.CreatedBy) {
			cp := c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemory) UpdateCompany(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.licenseTakenLocked(c.LicenseNo, c.ID) {
		return sentinel.ErrConflict
	}
	s.companies[c.ID] = *c
	return nil
}

func (s *InMemory) DeleteCompany(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.companies, id)
	return nil
}

// -----------------------------------------------------------------------------
// Parties
// -----------------------------------------------------------------------------

func (s *InMemory) PartiesByParent(_ context.Context, domain models.Domain, parentID uuid.UUID) ([]models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Party
	for _, p := range s.parties {
		if p.Domain == domain && p.ParentID == parentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *InMemory) GetParty(_ context.Context, id uuid.UUID) (*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parties[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemory) UpdateParty(_ context.Context, p *models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parties[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.parties[p.ID] = *p
	return nil
}

// -----------------------------------------------------------------------------
// Cancellations
// -----------------------------------------------------------------------------

func (s *InMemory) CreateCancellation(_ context.Context, c *models.Cancellation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cancellations {
		if existing.Domain == c.Domain && existing.ParentID == c.ParentID {
			return sentinel.ErrConflict
		}
	}
	s.cancellations[c.ID] = *c
	return nil
}

func (s *InMemory) CancellationByParent(_ context.Context, domain models.Domain, parentID uuid.UUID) (*models.Cancellation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cancellations {
		if c.Domain == domain && c.ParentID == parentID {
			cp := c
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// -----------------------------------------------------------------------------
// Conflict scan (guard.ConflictStore)
// -----------------------------------------------------------------------------

// FindActiveConflicts deliberately ignores ownership scoping: the invariant
// is system-wide.
func (s *InMemory) FindActiveConflicts(_ context.Context, domain models.Domain, side models.Side, identity guard.Identity, restrictedTypeIDs []int64, excludePartyID uuid.UUID) ([]guard.Conflict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	restricted := make(map[int64]struct{}, len(restrictedTypeIDs))
	for _, id := range restrictedTypeIDs {
		restricted[id] = struct{}{}
	}
	want := identity.Key()

	var out []guard.Conflict
	for _, p := range s.parties {
		if p.Domain != domain || p.Side != side || p.ID == excludePartyID {
			continue
		}
		candidate := guard.Identity{FirstName: p.FirstName, FatherName: p.FatherName, GrandFather: p.GrandFather}
		if candidate.Key() != want {
			continue
		}
		typeID, ok := s.parentTypeLocked(domain, p.ParentID)
		if !ok {
			continue
		}
		if _, ok := restricted[typeID]; !ok {
			continue
		}
		if s.cancelledLocked(domain, p.ParentID) {
			continue
		}
		out = append(out, guard.Conflict{
			PartyID:             p.ID,
			ParentID:            p.ParentID,
			TransactionTypeID:   typeID,
			TransactionTypeName: s.txTypes[typeID].Name,
		})
	}
	return out, nil
}

func (s *InMemory) parentTypeLocked(domain models.Domain, parentID uuid.UUID) (int64, bool) {
	switch domain {
	case models.DomainProperty:
		p, ok := s.properties[parentID]
		return p.TransactionTypeID, ok
	case models.DomainVehicle:
		v, ok := s.vehicles[parentID]
		return v.TransactionTypeID, ok
	default:
		return 0, false
	}
}

func (s *InMemory) cancelledLocked(domain models.Domain, parentID uuid.UUID) bool {
	for _, c := range s.cancellations {
		if c.Domain == domain && c.ParentID == parentID {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Aggregates
// -----------------------------------------------------------------------------

func (s *InMemory) Summary(_ context.Context, scope authz.Scope) (models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum models.Summary
	for _, p := range s.properties {
		if scope.Matches(p.CreatedBy) {
			sum.Properties++
		}
	}
	for _, v := range s.vehicles {
		if scope.Matches(v.CreatedBy) {
			sum.Vehicles++
		}
	}
	for _, c := range s.companies {
		if scope.Matches(c.CreatedBy) {
			sum.Companies++
		}
	}
	for _, c := range s.cancellations {
		if scope.Matches(c.CancelledBy) {
			sum.Cancellations++
		}
	}
	return sum, nil
}

func (s *InMemory) ListActors(_ context.Context) ([]models.ActorActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byActor := make(map[string]*models.ActorActivity)
	record := func(createdBy string, createdAt time.Time) {
		a, ok := byActor[createdBy]
		if !ok {
			a = &models.ActorActivity{UserID: createdBy}
			byActor[createdBy] = a
		}
		a.Registrations++
		if createdAt.After(a.LastCreatedAt) {
			a.LastCreatedAt = createdAt
		}
	}
	for _, p := range s.properties {
		record(p.CreatedBy, p.CreatedAt)
	}
	for _, v := range s.vehicles {
		record(v.CreatedBy, v.CreatedAt)
	}
	for _, c := range s.companies {
		record(c.CreatedBy, c.CreatedAt)
	}
	out := make([]models.ActorActivity, 0, len(byActor))
	for _, a := range byActor {
		out = append(out, *a)
	}
	return out, nil
}

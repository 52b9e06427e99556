package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/models"
	"tasjeel/pkg/platform/sentinel"
)

// =============================================================================
// In-Memory Store Test Suite
// =============================================================================

type InMemorySuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *InMemorySuite) newProperty(createdBy string) (*models.Property, []models.Party) {
	p := &models.Property{
		ID:                uuid.New(),
		DocumentNo:        "DOC-1",
		District:          "District 4",
		PlotNo:            "12",
		AreaSqm:           300,
		PriceAfs:          1_500_000,
		TransactionTypeID: models.TxTypePropertySale,
		CreatedBy:         createdBy,
		CreatedAt:         time.Now().UTC(),
	}
	parties := []models.Party{
		{
			ID: uuid.New(), Domain: models.DomainProperty, Side: models.SideSeller,
			ParentID: p.ID, FirstName: "Ahmad", FatherName: "Wali", GrandFather: "Karim",
			CreatedBy: createdBy, CreatedAt: p.CreatedAt,
		},
		{
			ID: uuid.New(), Domain: models.DomainProperty, Side: models.SideBuyer,
			ParentID: p.ID, FirstName: "Farid", FatherName: "Omar", GrandFather: "Jan",
			CreatedBy: createdBy, CreatedAt: p.CreatedAt,
		},
	}
	return p, parties
}

// =============================================================================
// Lookup Types
// =============================================================================

func (s *InMemorySuite) TestTransactionTypes() {
	s.Run("seeded types resolve by id", func() {
		tt, err := s.store.TransactionType(s.ctx, models.TxTypePropertySale)
		s.Require().NoError(err)
		s.Equal("Sale", tt.Name)
		s.Equal(models.DomainProperty, tt.Domain)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.TransactionType(s.ctx, 999)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("listing is filtered by domain", func() {
		types, err := s.store.TransactionTypes(s.ctx, models.DomainVehicle)
		s.Require().NoError(err)
		s.Len(types, 4)
		for _, tt := range types {
			s.Equal(models.DomainVehicle, tt.Domain)
		}
	})
}

// =============================================================================
// Property CRUD
// =============================================================================

func (s *InMemorySuite) TestPropertyCRUD() {
	p, parties := s.newProperty("u-1")
	s.Require().NoError(s.store.CreateProperty(s.ctx, p, parties))

	s.Run("get returns a copy of the stored record", func() {
		got, err := s.store.GetProperty(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.DocumentNo, got.DocumentNo)

		got.DocumentNo = "MUTATED"
		again, err := s.store.GetProperty(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal("DOC-1", again.DocumentNo)
	})

	s.Run("parties land under the parent", func() {
		got, err := s.store.PartiesByParent(s.ctx, models.DomainProperty, p.ID)
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("update replaces the record", func() {
		upd := *p
		upd.District = "District 9"
		s.Require().NoError(s.store.UpdateProperty(s.ctx, &upd))

		got, err := s.store.GetProperty(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal("District 9", got.District)
	})

	s.Run("update of a missing record is not found", func() {
		missing := *p
		missing.ID = uuid.New()
		s.ErrorIs(s.store.UpdateProperty(s.ctx, &missing), sentinel.ErrNotFound)
	})

	s.Run("delete removes the record and its parties", func() {
		s.Require().NoError(s.store.DeleteProperty(s.ctx, p.ID))

		_, err := s.store.GetProperty(s.ctx, p.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)

		got, err := s.store.PartiesByParent(s.ctx, models.DomainProperty, p.ID)
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("delete of a missing record is not found", func() {
		s.ErrorIs(s.store.DeleteProperty(s.ctx, uuid.New()), sentinel.ErrNotFound)
	})
}

func (s *InMemorySuite) TestListPropertiesScope() {
	mine, myParties := s.newProperty("u-1")
	s.Require().NoError(s.store.CreateProperty(s.ctx, mine, myParties))
	theirs, theirParties := s.newProperty("u-2")
	s.Require().NoError(s.store.CreateProperty(s.ctx, theirs, theirParties))

	s.Run("view-all scope sees everything", func() {
		got, err := s.store.ListProperties(s.ctx, authz.Scope{ViewAll: true})
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("creator scope sees only own records", func() {
		got, err := s.store.ListProperties(s.ctx, authz.Scope{CreatedBy: "u-1"})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(mine.ID, got[0].ID)
	})
}

// =============================================================================
// Company CRUD
// =============================================================================

func (s *InMemorySuite) TestCompanyCRUD() {
	c := &models.Company{
		ID:          uuid.New(),
		Name:        "Kabul Motors",
		LicenseNo:   "LIC-100",
		LicenseType: authz.LicenseCarSale,
		CreatedBy:   "u-1",
		CreatedAt:   time.Now().UTC(),
	}
	s.Require().NoError(s.store.CreateCompany(s.ctx, c))

	s.Run("duplicate license number conflicts", func() {
		dup := *c
		dup.ID = uuid.New()
		s.ErrorIs(s.store.CreateCompany(s.ctx, &dup), sentinel.ErrConflict)
	})

	s.Run("update to an already-taken license number conflicts", func() {
		other := *c
		other.ID = uuid.New()
		other.LicenseNo = "LIC-200"
		s.Require().NoError(s.store.CreateCompany(s.ctx, &other))

		other.LicenseNo = "LIC-100"
		s.ErrorIs(s.store.UpdateCompany(s.ctx, &other), sentinel.ErrConflict)
	})

	s.Run("delete removes the record", func() {
		s.Require().NoError(s.store.DeleteCompany(s.ctx, c.ID))
		_, err := s.store.GetCompany(s.ctx, c.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// =============================================================================
// Cancellations
// =============================================================================

func (s *InMemorySuite) TestCancellations() {
	p, parties := s.newProperty("u-1")
	s.Require().NoError(s.store.CreateProperty(s.ctx, p, parties))

	c := &models.Cancellation{
		ID:          uuid.New(),
		Domain:      models.DomainProperty,
		ParentID:    p.ID,
		Reason:      "clerical error",
		CancelledBy: "u-1",
		CancelledAt: time.Now().UTC(),
	}

	s.Run("first cancellation is recorded", func() {
		s.Require().NoError(s.store.CreateCancellation(s.ctx, c))
		got, err := s.store.CancellationByParent(s.ctx, models.DomainProperty, p.ID)
		s.Require().NoError(err)
		s.Equal("clerical error", got.Reason)
	})

	s.Run("second cancellation for the same parent conflicts", func() {
		again := *c
		again.ID = uuid.New()
		s.ErrorIs(s.store.CreateCancellation(s.ctx, &again), sentinel.ErrConflict)
	})

	s.Run("no cancellation is not found", func() {
		_, err := s.store.CancellationByParent(s.ctx, models.DomainProperty, uuid.New())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// =============================================================================
// Summary and Actors
// =============================================================================

func (s *InMemorySuite) TestSummaryAndActors() {
	p, parties := s.newProperty("u-1")
	s.Require().NoError(s.store.CreateProperty(s.ctx, p, parties))
	p2, parties2 := s.newProperty("u-2")
	s.Require().NoError(s.store.CreateProperty(s.ctx, p2, parties2))
	s.Require().NoError(s.store.CreateCompany(s.ctx, &models.Company{
		ID: uuid.New(), Name: "Agency", LicenseNo: "LIC-1",
		LicenseType: authz.LicenseRealEstate, CreatedBy: "u-1", CreatedAt: time.Now().UTC(),
	}))

	s.Run("unscoped summary counts everything", func() {
		sum, err := s.store.Summary(s.ctx, authz.Scope{ViewAll: true})
		s.Require().NoError(err)
		s.Equal(2, sum.Properties)
		s.Equal(0, sum.Vehicles)
		s.Equal(1, sum.Companies)
	})

	s.Run("creator scope counts own records only", func() {
		sum, err := s.store.Summary(s.ctx, authz.Scope{CreatedBy: "u-2"})
		s.Require().NoError(err)
		s.Equal(1, sum.Properties)
		s.Equal(0, sum.Companies)
	})

	s.Run("actors aggregate per creator", func() {
		actors, err := s.store.ListActors(s.ctx)
		s.Require().NoError(err)
		s.Len(actors, 2)
	})
}

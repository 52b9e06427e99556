package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/audit"
	"tasjeel/internal/registry/guard"
	"tasjeel/internal/registry/models"
	"tasjeel/internal/registry/store"
	"tasjeel/pkg/requestcontext"

	dErrors "tasjeel/pkg/domain-errors"
)

// =============================================================================
// Service Test Suite
// =============================================================================

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	sink    *audit.InMemorySink
	service *Service

	admin            authz.Caller
	authority        authz.Caller
	propertyOperator authz.Caller
	vehicleOperator  authz.Caller
	registrar        authz.Caller
	reviewer         authz.Caller
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC))
	s.store = store.NewInMemory()
	s.sink = audit.NewInMemorySink()

	g, err := guard.New(s.store, guard.NewInMemoryLocker())
	s.Require().NoError(err)
	auditor, err := audit.New(s.sink)
	s.Require().NoError(err)

	s.service, err = New(s.store, g, auditor, WithAuditReader(s.sink))
	s.Require().NoError(err)

	s.admin = authz.Caller{ID: "admin-1", Roles: []authz.Role{authz.RoleAdmin}}
	s.authority = authz.Caller{ID: "authority-1", Roles: []authz.Role{authz.RoleAuthority}}
	s.propertyOperator = authz.Caller{ID: "prop-op-1", Roles: []authz.Role{authz.RolePropertyOperator}}
	s.vehicleOperator = authz.Caller{ID: "veh-op-1", Roles: []authz.Role{authz.RoleVehicleOperator}}
	s.registrar = authz.Caller{ID: "registrar-1", Roles: []authz.Role{authz.RoleCompanyRegistrar}}
	s.reviewer = authz.Caller{ID: "reviewer-1", Roles: []authz.Role{authz.RoleLicenseReviewer}}
}

func party(first, father, grandFather string) PartyInput {
	return PartyInput{FirstName: first, FatherName: father, GrandFather: grandFather}
}

func propertyInput(typeID int64, sellers, buyers []PartyInput) RegisterPropertyInput {
	return RegisterPropertyInput{
		DocumentNo:        "DOC-77",
		District:          "District 4",
		PlotNo:            "12",
		AreaSqm:           300,
		PriceAfs:          1_500_000,
		TransactionTypeID: typeID,
		Sellers:           sellers,
		Buyers:            buyers,
	}
}

func vehicleInput(typeID int64, sellers, buyers []PartyInput) RegisterVehicleInput {
	return RegisterVehicleInput{
		PlateNo:           "KBL-1234",
		ChassisNo:         "CH-999",
		EngineNo:          "EN-111",
		Model:             "Corolla 2019",
		PriceAfs:          800_000,
		TransactionTypeID: typeID,
		Sellers:           sellers,
		Buyers:            buyers,
	}
}

// =============================================================================
// Registration
// =============================================================================

func (s *ServiceSuite) TestRegisterProperty() {
	s.Run("operator registers a property with ownership stamped", func() {
		in := propertyInput(models.TxTypePropertySale,
			[]PartyInput{party("Ahmad", "Wali", "Karim")},
			[]PartyInput{party("Farid", "Omar", "Jan")})

		p, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, in)
		s.Require().NoError(err)
		s.Equal("prop-op-1", p.CreatedBy)
		s.Equal(time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC), p.CreatedAt)

		details, err := s.service.GetProperty(s.ctx, s.propertyOperator, p.ID)
		s.Require().NoError(err)
		s.Len(details.Sellers, 1)
		s.Len(details.Buyers, 1)
		s.Nil(details.Cancellation)
	})

	s.Run("creation emits no audit rows", func() {
		in := propertyInput(models.TxTypePropertySale,
			[]PartyInput{party("Naim", "Sharif", "Gul")},
			[]PartyInput{party("Zia", "Rahim", "Dost")})

		p, err := s.service.RegisterProperty(s.ctx, s.admin, in)
		s.Require().NoError(err)

		entries, err := s.sink.ListByEntity(s.ctx, audit.KindProperty, p.ID)
		s.Require().NoError(err)
		s.Empty(entries)
	})

	s.Run("at least one seller and one buyer are required", func() {
		in := propertyInput(models.TxTypePropertySale,
			nil,
			[]PartyInput{party("Farid", "Omar", "Jan")})

		_, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, in)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("transaction type from the wrong domain is rejected", func() {
		in := propertyInput(models.TxTypeVehicleSale,
			[]PartyInput{party("Ahmad", "Wali", "Karim")},
			[]PartyInput{party("Farid", "Omar", "Jan")})

		_, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, in)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestRegisterAuthorization() {
	in := propertyInput(models.TxTypePropertySale,
		[]PartyInput{party("Ahmad", "Wali", "Karim")},
		[]PartyInput{party("Farid", "Omar", "Jan")})

	s.Run("reviewer cannot enter the property module", func() {
		_, err := s.service.RegisterProperty(s.ctx, s.reviewer, in)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("vehicle operator cannot enter the property module", func() {
		_, err := s.service.RegisterProperty(s.ctx, s.vehicleOperator, in)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("authority can read but not create", func() {
		_, err := s.service.ListProperties(s.ctx, s.authority)
		s.NoError(err)

		_, err = s.service.RegisterProperty(s.ctx, s.authority, in)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("real estate license opens the property module", func() {
		licensed := authz.Caller{
			ID:          "dealer-1",
			Roles:       []authz.Role{authz.RoleCompanyRegistrar},
			LicenseType: authz.LicenseRealEstate,
		}
		_, err := s.service.RegisterProperty(s.ctx, licensed, in)
		s.NoError(err)
	})
}

// =============================================================================
// Duplicate Detection
// =============================================================================

func (s *ServiceSuite) TestDuplicateRejection() {
	first := propertyInput(models.TxTypePropertySale,
		[]PartyInput{party("Ahmad", "Wali", "Karim")},
		[]PartyInput{party("Farid", "Omar", "Jan")})
	_, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, first)
	s.Require().NoError(err)

	s.Run("same seller identity is rejected across creators", func() {
		second := propertyInput(models.TxTypePropertySale,
			[]PartyInput{party("Ahmad", "Wali", "Karim")},
			[]PartyInput{party("Other", "Buyer", "Here")})

		_, err := s.service.RegisterProperty(s.ctx, s.admin, second)
		s.True(dErrors.Is(err, dErrors.CodeDuplicateTransaction))
	})

	s.Run("whitespace variants of the identity are rejected", func() {
		second := propertyInput(models.TxTypePropertySale,
			[]PartyInput{party("  Ahmad ", " Wali", "Karim  ")},
			[]PartyInput{party("Other", "Buyer", "Here")})

		_, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, second)
		s.True(dErrors.Is(err, dErrors.CodeDuplicateTransaction))
	})

	s.Run("same identity on the other side is allowed", func() {
		second := propertyInput(models.TxTypePropertySale,
			[]PartyInput{party("Someone", "Else", "Entirely")},
			[]PartyInput{party("Ahmad", "Wali", "Karim")})

		_, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, second)
		s.NoError(err)
	})

	s.Run("same identity in the vehicle domain is allowed", func() {
		second := vehicleInput(models.TxTypeVehicleSale,
			[]PartyInput{party("Ahmad", "Wali", "Karim")},
			[]PartyInput{party("Farid", "Omar", "Jan")})

		_, err := s.service.RegisterVehicle(s.ctx, s.vehicleOperator, second)
		s.NoError(err)
	})

	s.Run("unrestricted transaction type skips the check", func() {
		second := propertyInput(models.TxTypePropertyMortgage,
			[]PartyInput{party("Ahmad", "Wali", "Karim")},
			[]PartyInput{party("Other", "Buyer", "Here")})

		_, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, second)
		s.NoError(err)
	})

	s.Run("cancelled transaction frees the identity", func() {
		blocked := propertyInput(models.TxTypePropertySale,
			[]PartyInput{party("Basir", "Qasim", "Noor")},
			[]PartyInput{party("Other", "Buyer", "Here")})
		p, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, blocked)
		s.Require().NoError(err)

		again := propertyInput(models.TxTypePropertySale,
			[]PartyInput{party("Basir", "Qasim", "Noor")},
			[]PartyInput{party("Another", "Buyer", "Too")})
		_, err = s.service.RegisterProperty(s.ctx, s.propertyOperator, again)
		s.True(dErrors.Is(err, dErrors.CodeDuplicateTransaction))

		_, err = s.service.CancelProperty(s.ctx, s.propertyOperator, p.ID, "deal fell through")
		s.Require().NoError(err)

		_, err = s.service.RegisterProperty(s.ctx, s.propertyOperator, again)
		s.NoError(err)
	})
}

// =============================================================================
// Update and Audit Trail
// =============================================================================

func (s *ServiceSuite) TestUpdateProperty() {
	in := propertyInput(models.TxTypePropertySale,
		[]PartyInput{party("Ahmad", "Wali", "Karim")},
		[]PartyInput{party("Farid", "Omar", "Jan")})
	created, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, in)
	s.Require().NoError(err)

	s.Run("update preserves ownership and emits audit rows", func() {
		later := requestcontext.WithTime(s.ctx,
			time.Date(2026, 5, 11, 14, 0, 0, 0, time.UTC))

		upd := UpdatePropertyInput{
			DocumentNo:        created.DocumentNo,
			District:          "District 9",
			PlotNo:            created.PlotNo,
			AreaSqm:           created.AreaSqm,
			PriceAfs:          2_000_000,
			TransactionTypeID: created.TransactionTypeID,
		}
		updated, err := s.service.UpdateProperty(later, s.propertyOperator, created.ID, upd)
		s.Require().NoError(err)
		s.Equal(created.CreatedBy, updated.CreatedBy)
		s.Equal(created.CreatedAt, updated.CreatedAt)

		entries, err := s.sink.ListByEntity(s.ctx, audit.KindProperty, created.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		for _, e := range entries {
			s.Equal("prop-op-1", e.UpdatedBy)
			s.Equal(time.Date(2026, 5, 11, 14, 0, 0, 0, time.UTC), e.UpdatedAt)
		}
	})

	s.Run("history is readable through the service", func() {
		entries, err := s.service.PropertyHistory(s.ctx, s.propertyOperator, created.ID)
		s.Require().NoError(err)
		s.Len(entries, 2)
	})

	s.Run("another operator cannot edit the record", func() {
		other := authz.Caller{ID: "prop-op-2", Roles: []authz.Role{authz.RolePropertyOperator}}
		upd := UpdatePropertyInput{
			DocumentNo: created.DocumentNo, District: "District 1", PlotNo: created.PlotNo,
			AreaSqm: created.AreaSqm, PriceAfs: created.PriceAfs,
			TransactionTypeID: created.TransactionTypeID,
		}
		_, err := s.service.UpdateProperty(s.ctx, other, created.ID, upd)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("admin can edit anyone's record", func() {
		upd := UpdatePropertyInput{
			DocumentNo: created.DocumentNo, District: "District 2", PlotNo: created.PlotNo,
			AreaSqm: created.AreaSqm, PriceAfs: 2_000_000,
			TransactionTypeID: created.TransactionTypeID,
		}
		_, err := s.service.UpdateProperty(s.ctx, s.admin, created.ID, upd)
		s.NoError(err)
	})
}

func (s *ServiceSuite) TestUpdateTypeChangeGuard() {
	sale := propertyInput(models.TxTypePropertySale,
		[]PartyInput{party("Ali", "Karim", "Nasir")},
		[]PartyInput{party("Farid", "Omar", "Jan")})
	active, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, sale)
	s.Require().NoError(err)

	mortgage := propertyInput(models.TxTypePropertyMortgage,
		[]PartyInput{party("Ali", "Karim", "Nasir")},
		[]PartyInput{party("Zia", "Rahim", "Dost")})
	other, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, mortgage)
	s.Require().NoError(err)

	toType := func(p *models.Property, typeID int64) UpdatePropertyInput {
		return UpdatePropertyInput{
			DocumentNo: p.DocumentNo, District: p.District, PlotNo: p.PlotNo,
			AreaSqm: p.AreaSqm, PriceAfs: p.PriceAfs,
			TransactionTypeID: typeID,
		}
	}

	s.Run("edit onto a restricted type re-runs the duplicate check", func() {
		_, err := s.service.UpdateProperty(s.ctx, s.propertyOperator, other.ID,
			toType(other, models.TxTypePropertySale))
		s.True(dErrors.Is(err, dErrors.CodeDuplicateTransaction))
	})

	s.Run("edit onto an unrestricted type is unguarded", func() {
		_, err := s.service.UpdateProperty(s.ctx, s.propertyOperator, other.ID,
			toType(other, models.TxTypePropertyGift))
		s.NoError(err)
	})

	s.Run("keeping a restricted type does not conflict with itself", func() {
		_, err := s.service.UpdateProperty(s.ctx, s.propertyOperator, active.ID,
			toType(active, models.TxTypePropertySale))
		s.NoError(err)
	})

	s.Run("cancelling the blocker frees the type change", func() {
		_, err := s.service.CancelProperty(s.ctx, s.propertyOperator, active.ID, "deal fell through")
		s.Require().NoError(err)

		_, err = s.service.UpdateProperty(s.ctx, s.propertyOperator, other.ID,
			toType(other, models.TxTypePropertySale))
		s.NoError(err)
	})

	s.Run("vehicle edits are guarded the same way", func() {
		saleVeh := vehicleInput(models.TxTypeVehicleSale,
			[]PartyInput{party("Basir", "Qasim", "Noor")},
			[]PartyInput{party("Farid", "Omar", "Jan")})
		_, err := s.service.RegisterVehicle(s.ctx, s.vehicleOperator, saleVeh)
		s.Require().NoError(err)

		exchange := vehicleInput(models.TxTypeVehicleExchange,
			[]PartyInput{party("Basir", "Qasim", "Noor")},
			[]PartyInput{party("Zia", "Rahim", "Dost")})
		veh, err := s.service.RegisterVehicle(s.ctx, s.vehicleOperator, exchange)
		s.Require().NoError(err)

		_, err = s.service.UpdateVehicle(s.ctx, s.vehicleOperator, veh.ID, UpdateVehicleInput{
			PlateNo: veh.PlateNo, ChassisNo: veh.ChassisNo, EngineNo: veh.EngineNo,
			Model: veh.Model, PriceAfs: veh.PriceAfs,
			TransactionTypeID: models.TxTypeVehicleSale,
		})
		s.True(dErrors.Is(err, dErrors.CodeDuplicateTransaction))
	})
}

func (s *ServiceSuite) TestUpdateParty() {
	in := propertyInput(models.TxTypePropertySale,
		[]PartyInput{party("Ahmad", "Wali", "Karim")},
		[]PartyInput{party("Farid", "Omar", "Jan")})
	created, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, in)
	s.Require().NoError(err)

	details, err := s.service.GetProperty(s.ctx, s.propertyOperator, created.ID)
	s.Require().NoError(err)
	seller := details.Sellers[0]

	s.Run("renaming a party emits audit rows under the party kind", func() {
		updated, err := s.service.UpdateParty(s.ctx, s.propertyOperator, seller.ID, PartyInput{
			FirstName: "Ahmed", FatherName: "Wali", GrandFather: "Karim",
		})
		s.Require().NoError(err)
		s.Equal("Ahmed", updated.FirstName)
		s.Equal(seller.CreatedBy, updated.CreatedBy)

		entries, err := s.sink.ListByEntity(s.ctx, audit.KindPropertySeller, seller.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal("first_name", entries[0].Field)
	})

	s.Run("keeping the same identity does not self-conflict", func() {
		_, err := s.service.UpdateParty(s.ctx, s.propertyOperator, seller.ID, PartyInput{
			FirstName: "Ahmed", FatherName: "Wali", GrandFather: "Karim",
			Phone: audit.String("0700123456"),
		})
		s.NoError(err)
	})

	s.Run("renaming into an active identity is rejected", func() {
		other := propertyInput(models.TxTypePropertySale,
			[]PartyInput{party("Hamid", "Gul", "Shah")},
			[]PartyInput{party("Buyer", "Two", "Here")})
		_, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, other)
		s.Require().NoError(err)

		_, err = s.service.UpdateParty(s.ctx, s.propertyOperator, seller.ID, PartyInput{
			FirstName: "Hamid", FatherName: "Gul", GrandFather: "Shah",
		})
		s.True(dErrors.Is(err, dErrors.CodeDuplicateTransaction))
	})
}

// =============================================================================
// Cancellation and Deletion
// =============================================================================

func (s *ServiceSuite) TestCancelProperty() {
	in := propertyInput(models.TxTypePropertySale,
		[]PartyInput{party("Ahmad", "Wali", "Karim")},
		[]PartyInput{party("Farid", "Omar", "Jan")})
	created, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, in)
	s.Require().NoError(err)

	s.Run("a reason is required", func() {
		_, err := s.service.CancelProperty(s.ctx, s.propertyOperator, created.ID, "  ")
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("cancellation is recorded on the details view", func() {
		c, err := s.service.CancelProperty(s.ctx, s.propertyOperator, created.ID, "deal fell through")
		s.Require().NoError(err)
		s.Equal("prop-op-1", c.CancelledBy)

		details, err := s.service.GetProperty(s.ctx, s.propertyOperator, created.ID)
		s.Require().NoError(err)
		s.Require().NotNil(details.Cancellation)
		s.Equal("deal fell through", details.Cancellation.Reason)
	})

	s.Run("cancelling twice conflicts", func() {
		_, err := s.service.CancelProperty(s.ctx, s.propertyOperator, created.ID, "again")
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("only an admin can delete", func() {
		err := s.service.DeleteProperty(s.ctx, s.propertyOperator, created.ID)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))

		s.NoError(s.service.DeleteProperty(s.ctx, s.admin, created.ID))
	})
}

// =============================================================================
// Visibility Scope
// =============================================================================

func (s *ServiceSuite) TestVisibilityScope() {
	mine := propertyInput(models.TxTypePropertySale,
		[]PartyInput{party("Ahmad", "Wali", "Karim")},
		[]PartyInput{party("Farid", "Omar", "Jan")})
	mineCreated, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, mine)
	s.Require().NoError(err)

	other := authz.Caller{ID: "prop-op-2", Roles: []authz.Role{authz.RolePropertyOperator}}
	theirs := propertyInput(models.TxTypePropertySale,
		[]PartyInput{party("Naim", "Sharif", "Gul")},
		[]PartyInput{party("Zia", "Rahim", "Dost")})
	theirs.DocumentNo = "DOC-88"
	_, err = s.service.RegisterProperty(s.ctx, other, theirs)
	s.Require().NoError(err)

	s.Run("operators list only their own records", func() {
		got, err := s.service.ListProperties(s.ctx, s.propertyOperator)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(mineCreated.ID, got[0].ID)
	})

	s.Run("authority lists everything", func() {
		got, err := s.service.ListProperties(s.ctx, s.authority)
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("out-of-scope record reads as not found", func() {
		_, err := s.service.GetProperty(s.ctx, other, mineCreated.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Companies
// =============================================================================

func (s *ServiceSuite) TestCompanies() {
	in := CompanyInput{
		Name:        "Aria Real Estate",
		LicenseNo:   "LIC-100",
		LicenseType: authz.LicenseRealEstate,
	}

	s.Run("registrar registers a company", func() {
		c, err := s.service.RegisterCompany(s.ctx, s.registrar, in)
		s.Require().NoError(err)
		s.Equal("registrar-1", c.CreatedBy)
	})

	s.Run("duplicate license number conflicts", func() {
		dup := in
		dup.Name = "Another Agency"
		_, err := s.service.RegisterCompany(s.ctx, s.registrar, dup)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("unknown license type is rejected", func() {
		bad := in
		bad.LicenseNo = "LIC-300"
		bad.LicenseType = authz.LicenseType("fishing")
		_, err := s.service.RegisterCompany(s.ctx, s.registrar, bad)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("reviewer can read but not create", func() {
		_, err := s.service.ListCompanies(s.ctx, s.reviewer)
		s.NoError(err)

		more := in
		more.LicenseNo = "LIC-400"
		_, err = s.service.RegisterCompany(s.ctx, s.reviewer, more)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("property operator cannot enter the company module", func() {
		_, err := s.service.ListCompanies(s.ctx, s.propertyOperator)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})
}

// =============================================================================
// Reports, Dashboard and Actors
// =============================================================================

func (s *ServiceSuite) TestReports() {
	in := propertyInput(models.TxTypePropertySale,
		[]PartyInput{party("Ahmad", "Wali", "Karim")},
		[]PartyInput{party("Farid", "Omar", "Jan")})
	_, err := s.service.RegisterProperty(s.ctx, s.propertyOperator, in)
	s.Require().NoError(err)

	s.Run("operator summary is scoped to own records", func() {
		sum, err := s.service.ReportSummary(s.ctx, s.propertyOperator)
		s.Require().NoError(err)
		s.Equal(1, sum.Properties)

		other := authz.Caller{ID: "prop-op-2", Roles: []authz.Role{authz.RolePropertyOperator}}
		sum, err = s.service.ReportSummary(s.ctx, other)
		s.Require().NoError(err)
		s.Zero(sum.Properties)
	})

	s.Run("authority summary is unscoped", func() {
		sum, err := s.service.DashboardSummary(s.ctx, s.authority)
		s.Require().NoError(err)
		s.Equal(1, sum.Properties)
	})

	s.Run("reviewer is denied reports", func() {
		_, err := s.service.ReportSummary(s.ctx, s.reviewer)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("actor activity is admin-only", func() {
		_, err := s.service.ListActors(s.ctx, s.authority)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))

		actors, err := s.service.ListActors(s.ctx, s.admin)
		s.Require().NoError(err)
		s.Len(actors, 1)
	})
}

// =============================================================================
// Lookup Types
// =============================================================================

func (s *ServiceSuite) TestTransactionTypes() {
	s.Run("operator lists own-domain types", func() {
		types, err := s.service.TransactionTypes(s.ctx, s.propertyOperator, models.DomainProperty)
		s.Require().NoError(err)
		s.Len(types, 5)
	})

	s.Run("module access still applies", func() {
		_, err := s.service.TransactionTypes(s.ctx, s.reviewer, models.DomainProperty)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})
}

// =============================================================================
// Construction
// =============================================================================

func (s *ServiceSuite) TestNew() {
	g, err := guard.New(s.store, guard.NewInMemoryLocker())
	s.Require().NoError(err)
	auditor, err := audit.New(s.sink)
	s.Require().NoError(err)

	s.Run("store is required", func() {
		_, err := New(nil, g, auditor)
		s.Error(err)
	})

	s.Run("guard is required", func() {
		_, err := New(s.store, nil, auditor)
		s.Error(err)
	})

	s.Run("auditor is required", func() {
		_, err := New(s.store, g, nil)
		s.Error(err)
	})
}

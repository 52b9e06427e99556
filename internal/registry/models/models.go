// Package models defines the registry's tracked entities. Every record that
// callers can mutate carries created_by/created_at; both are immutable after
// creation and define ownership for authorization scoping.
package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/audit"
)

// Domain is the business domain a transaction record belongs to.
type Domain string

const (
	DomainProperty Domain = "property"
	DomainVehicle  Domain = "vehicle"
)

// Side distinguishes the two party tables of a transaction.
type Side string

const (
	SideSeller Side = "seller"
	SideBuyer  Side = "buyer"
)

// TransactionType is a seeded lookup row. Which type IDs are restricted is
// static guard configuration, not a column here.
type TransactionType struct {
	ID     int64
	Domain Domain
	Name   string
}

// Seeded transaction-type IDs. These are stable contract values; the guard's
// restricted sets and the seed data both reference them.
const (
	TxTypePropertySale          int64 = 1
	TxTypePropertyRent          int64 = 2
	TxTypePropertyRevocableSale int64 = 3
	TxTypePropertyMortgage      int64 = 4
	TxTypePropertyGift          int64 = 5

	TxTypeVehicleSale          int64 = 101
	TxTypeVehicleRent          int64 = 102
	TxTypeVehicleRevocableSale int64 = 103
	TxTypeVehicleExchange      int64 = 104
)

// SeedTransactionTypes returns the lookup rows seeded at bootstrap.
func SeedTransactionTypes() []TransactionType {
	return []TransactionType{
		{ID: TxTypePropertySale, Domain: DomainProperty, Name: "Sale"},
		{ID: TxTypePropertyRent, Domain: DomainProperty, Name: "Rent"},
		{ID: TxTypePropertyRevocableSale, Domain: DomainProperty, Name: "Revocable Sale"},
		{ID: TxTypePropertyMortgage, Domain: DomainProperty, Name: "Mortgage"},
		{ID: TxTypePropertyGift, Domain: DomainProperty, Name: "Gift"},
		{ID: TxTypeVehicleSale, Domain: DomainVehicle, Name: "Sale"},
		{ID: TxTypeVehicleRent, Domain: DomainVehicle, Name: "Rent"},
		{ID: TxTypeVehicleRevocableSale, Domain: DomainVehicle, Name: "Revocable Sale"},
		{ID: TxTypeVehicleExchange, Domain: DomainVehicle, Name: "Exchange"},
	}
}

// Property is a registered property transaction.
type Property struct {
	ID                uuid.UUID
	DocumentNo        string
	District          string
	PlotNo            string
	AreaSqm           int64
	PriceAfs          int64
	TransactionTypeID int64
	CreatedBy         string
	CreatedAt         time.Time
}

// Vehicle is a registered vehicle transaction.
type Vehicle struct {
	ID                uuid.UUID
	PlateNo           string
	ChassisNo         string
	EngineNo          string
	Model             string
	PriceAfs          int64
	TransactionTypeID int64
	CreatedBy         string
	CreatedAt         time.Time
}

// Party is one seller or buyer detail row attached to a property or vehicle
// record. The name triple is the identity used for duplicate detection.
type Party struct {
	ID          uuid.UUID
	Domain      Domain
	Side        Side
	ParentID    uuid.UUID
	FirstName   string
	FatherName  string
	GrandFather string
	Phone       *string
	Address     *string
	CreatedBy   string
	CreatedAt   time.Time
}

// Company is a licensed dealer/agency record.
type Company struct {
	ID          uuid.UUID
	Name        string
	LicenseNo   string
	LicenseType authz.LicenseType
	Address     *string
	CreatedBy   string
	CreatedAt   time.Time
}

// Cancellation is the sidecar record that soft-cancels a transaction. It is
// a separate row rather than a flag on the parent because it carries its own
// audit fields that must survive independently of the parent's lifecycle.
type Cancellation struct {
	ID          uuid.UUID
	Domain      Domain
	ParentID    uuid.UUID
	Reason      string
	CancelledBy string
	CancelledAt time.Time
}

// Summary aggregates record counts for the reports and dashboard views.
// Counts respect the caller's ownership scope.
type Summary struct {
	Properties    int
	Vehicles      int
	Companies     int
	Cancellations int
}

// ActorActivity is one operator row in the admin users view: an identity that
// has created records, with volume and recency.
type ActorActivity struct {
	UserID        string
	Registrations int
	LastCreatedAt time.Time
}

func formatInt(v int64) *string {
	s := strconv.FormatInt(v, 10)
	return &s
}

// Snapshot enumerates the property's auditable fields. created_by/created_at
// are deliberately absent; they can never appear as a change.
func (p Property) Snapshot() audit.Snapshot {
	return audit.Snapshot{
		"document_no":         audit.StringOrNil(p.DocumentNo),
		"district":            audit.StringOrNil(p.District),
		"plot_no":             audit.StringOrNil(p.PlotNo),
		"area_sqm":            formatInt(p.AreaSqm),
		"price_afs":           formatInt(p.PriceAfs),
		"transaction_type_id": formatInt(p.TransactionTypeID),
	}
}

// Snapshot enumerates the vehicle's auditable fields.
func (v Vehicle) Snapshot() audit.Snapshot {
	return audit.Snapshot{
		"plate_no":            audit.StringOrNil(v.PlateNo),
		"chassis_no":          audit.StringOrNil(v.ChassisNo),
		"engine_no":           audit.StringOrNil(v.EngineNo),
		"model":               audit.StringOrNil(v.Model),
		"price_afs":           formatInt(v.PriceAfs),
		"transaction_type_id": formatInt(v.TransactionTypeID),
	}
}

// Snapshot enumerates the party's auditable fields.
func (p Party) Snapshot() audit.Snapshot {
	return audit.Snapshot{
		"first_name":   audit.StringOrNil(p.FirstName),
		"father_name":  audit.StringOrNil(p.FatherName),
		"grand_father": audit.StringOrNil(p.GrandFather),
		"phone":        p.Phone,
		"address":      p.Address,
	}
}

// Snapshot enumerates the company's auditable fields.
func (c Company) Snapshot() audit.Snapshot {
	return audit.Snapshot{
		"name":         audit.StringOrNil(c.Name),
		"license_no":   audit.StringOrNil(c.LicenseNo),
		"license_type": audit.StringOrNil(string(c.LicenseType)),
		"address":      c.Address,
	}
}

// AuditKind maps a party's domain and side to its fixed audit sink kind.
func (p Party) AuditKind() audit.Kind {
	switch {
	case p.Domain == DomainProperty && p.Side == SideSeller:
		return audit.KindPropertySeller
	case p.Domain == DomainProperty && p.Side == SideBuyer:
		return audit.KindPropertyBuyer
	case p.Domain == DomainVehicle && p.Side == SideSeller:
		return audit.KindVehicleSeller
	default:
		return audit.KindVehicleBuyer
	}
}

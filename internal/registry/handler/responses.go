package handler

import (
	"time"

	"tasjeel/internal/registry/audit"
	"tasjeel/internal/registry/models"
	"tasjeel/internal/registry/service"
)

type PartyResponse struct {
	ID          string  `json:"id"`
	Side        string  `json:"side"`
	FirstName   string  `json:"first_name"`
	FatherName  string  `json:"father_name"`
	GrandFather string  `json:"grand_father"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	CreatedBy   string  `json:"created_by"`
	CreatedAt   string  `json:"created_at"`
}

func fromParty(p models.Party) PartyResponse {
	return PartyResponse{
		ID:          p.ID.String(),
		Side:        string(p.Side),
		FirstName:   p.FirstName,
		FatherName:  p.FatherName,
		GrandFather: p.GrandFather,
		Phone:       p.Phone,
		Address:     p.Address,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

func fromParties(parties []models.Party) []PartyResponse {
	out := make([]PartyResponse, 0, len(parties))
	for _, p := range parties {
		out = append(out, fromParty(p))
	}
	return out
}

type PropertyResponse struct {
	ID                string `json:"id"`
	DocumentNo        string `json:"document_no"`
	District          string `json:"district"`
	PlotNo            string `json:"plot_no"`
	AreaSqm           int64  `json:"area_sqm"`
	PriceAfs          int64  `json:"price_afs"`
	TransactionTypeID int64  `json:"transaction_type_id"`
	CreatedBy         string `json:"created_by"`
	CreatedAt         string `json:"created_at"`
}

func fromProperty(p *models.Property) PropertyResponse {
	return PropertyResponse{
		ID:                p.ID.String(),
		DocumentNo:        p.DocumentNo,
		District:          p.District,
		PlotNo:            p.PlotNo,
		AreaSqm:           p.AreaSqm,
		PriceAfs:          p.PriceAfs,
		TransactionTypeID: p.TransactionTypeID,
		CreatedBy:         p.CreatedBy,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
}

func fromProperties(properties []*models.Property) []PropertyResponse {
	out := make([]PropertyResponse, 0, len(properties))
	for _, p := range properties {
		out = append(out, fromProperty(p))
	}
	return out
}

type CancellationResponse struct {
	ID          string `json:"id"`
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
	CancelledAt string `json:"cancelled_at"`
}

func fromCancellation(c *models.Cancellation) *CancellationResponse {
	if c == nil {
		return nil
	}
	return &CancellationResponse{
		ID:          c.ID.String(),
		Reason:      c.Reason,
		CancelledBy: c.CancelledBy,
		CancelledAt: c.CancelledAt.Format(time.RFC3339),
	}
}

type PropertyDetailsResponse struct {
	Property     PropertyResponse      `json:"property"`
	Sellers      []PartyResponse       `json:"sellers"`
	Buyers       []PartyResponse       `json:"buyers"`
	Cancellation *CancellationResponse `json:"cancellation,omitempty"`
}

func fromPropertyDetails(d *service.PropertyDetails) PropertyDetailsResponse {
	return PropertyDetailsResponse{
		Property:     fromProperty(d.Property),
		Sellers:      fromParties(d.Sellers),
		Buyers:       fromParties(d.Buyers),
		Cancellation: fromCancellation(d.Cancellation),
	}
}

type VehicleResponse struct {
	ID                string `json:"id"`
	PlateNo           string `json:"plate_no"`
	ChassisNo         string `json:"chassis_no"`
	EngineNo          string `json:"engine_no"`
	Model             string `json:"model"`
	PriceAfs          int64  `json:"price_afs"`
	TransactionTypeID int64  `json:"transaction_type_id"`
	CreatedBy         string `json:"created_by"`
	CreatedAt         string `json:"created_at"`
}

func fromVehicle(v *models.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:                v.ID.String(),
		PlateNo:           v.PlateNo,
		ChassisNo:         v.ChassisNo,
		EngineNo:          v.EngineNo,
		Model:             v.Model,
		PriceAfs:          v.PriceAfs,
		TransactionTypeID: v.TransactionTypeID,
		CreatedBy:         v.CreatedBy,
		CreatedAt:         v.CreatedAt.Format(time.RFC3339),
	}
}

func fromVehicles(vehicles []*models.Vehicle) []VehicleResponse {
	out := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, fromVehicle(v))
	}
	return out
}

type VehicleDetailsResponse struct {
	Vehicle      VehicleResponse       `json:"vehicle"`
	Sellers      []PartyResponse       `json:"sellers"`
	Buyers       []PartyResponse       `json:"buyers"`
	Cancellation *CancellationResponse `json:"cancellation,omitempty"`
}

func fromVehicleDetails(d *service.VehicleDetails) VehicleDetailsResponse {
	return VehicleDetailsResponse{
		Vehicle:      fromVehicle(d.Vehicle),
		Sellers:      fromParties(d.Sellers),
		Buyers:       fromParties(d.Buyers),
		Cancellation: fromCancellation(d.Cancellation),
	}
}

type CompanyResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	LicenseNo   string  `json:"license_no"`
	LicenseType string  `json:"license_type"`
	Address     *string `json:"address,omitempty"`
	CreatedBy   string  `json:"created_by"`
	CreatedAt   string  `json:"created_at"`
}

func fromCompany(c *models.Company) CompanyResponse {
	return CompanyResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		LicenseNo:   c.LicenseNo,
		LicenseType: string(c.LicenseType),
		Address:     c.Address,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

func fromCompanies(companies []*models.Company) []CompanyResponse {
	out := make([]CompanyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, fromCompany(c))
	}
	return out
}

type TransactionTypeResponse struct {
	ID     int64  `json:"id"`
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

func fromTransactionTypes(types []models.TransactionType) []TransactionTypeResponse {
	out := make([]TransactionTypeResponse, 0, len(types))
	for _, tt := range types {
		out = append(out, TransactionTypeResponse{ID: tt.ID, Domain: string(tt.Domain), Name: tt.Name})
	}
	return out
}

type AuditEntryResponse struct {
	ID        string  `json:"id"`
	Field     string  `json:"field"`
	OldValue  *string `json:"old_value"`
	NewValue  *string `json:"new_value"`
	UpdatedBy string  `json:"updated_by"`
	UpdatedAt string  `json:"updated_at"`
}

func fromAuditEntries(entries []audit.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:        e.ID.String(),
			Field:     e.Field,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			UpdatedBy: e.UpdatedBy,
			UpdatedAt: e.UpdatedAt.Format(time.RFC3339Nano),
		})
	}
	return out
}

type SummaryResponse struct {
	Properties    int `json:"properties"`
	Vehicles      int `json:"vehicles"`
	Companies     int `json:"companies"`
	Cancellations int `json:"cancellations"`
}

func fromSummary(s models.Summary) SummaryResponse {
	return SummaryResponse{
		Properties:    s.Properties,
		Vehicles:      s.Vehicles,
		Companies:     s.Companies,
		Cancellations: s.Cancellations,
	}
}

type ActorResponse struct {
	UserID        string `json:"user_id"`
	Registrations int    `json:"registrations"`
	LastCreatedAt string `json:"last_created_at"`
}

func fromActors(actors []models.ActorActivity) []ActorResponse {
	out := make([]ActorResponse, 0, len(actors))
	for _, a := range actors {
		out = append(out, ActorResponse{
			UserID:        a.UserID,
			Registrations: a.Registrations,
			LastCreatedAt: a.LastCreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

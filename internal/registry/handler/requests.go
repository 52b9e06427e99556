package handler

import (
	"strings"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/service"
	dErrors "tasjeel/pkg/domain-errors"
)

// PartyPayload is one seller or buyer in a request body.
type PartyPayload struct {
	FirstName   string  `json:"first_name"`
	FatherName  string  `json:"father_name"`
	GrandFather string  `json:"grand_father"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
}

func (p PartyPayload) toInput() service.PartyInput {
	return service.PartyInput{
		FirstName:   p.FirstName,
		FatherName:  p.FatherName,
		GrandFather: p.GrandFather,
		Phone:       p.Phone,
		Address:     p.Address,
	}
}

func toPartyInputs(payloads []PartyPayload) []service.PartyInput {
	out := make([]service.PartyInput, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, p.toInput())
	}
	return out
}

// RegisterPropertyRequest is the body of POST /properties.
type RegisterPropertyRequest struct {
	DocumentNo        string         `json:"document_no"`
	District          string         `json:"district"`
	PlotNo            string         `json:"plot_no"`
	AreaSqm           int64          `json:"area_sqm"`
	PriceAfs          int64          `json:"price_afs"`
	TransactionTypeID int64          `json:"transaction_type_id"`
	Sellers           []PartyPayload `json:"sellers"`
	Buyers            []PartyPayload `json:"buyers"`
}

func (r RegisterPropertyRequest) Validate() error {
	if r.TransactionTypeID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "transaction_type_id is required")
	}
	return nil
}

func (r RegisterPropertyRequest) toInput() service.RegisterPropertyInput {
	return service.RegisterPropertyInput{
		DocumentNo:        r.DocumentNo,
		District:          r.District,
		PlotNo:            r.PlotNo,
		AreaSqm:           r.AreaSqm,
		PriceAfs:          r.PriceAfs,
		TransactionTypeID: r.TransactionTypeID,
		Sellers:           toPartyInputs(r.Sellers),
		Buyers:            toPartyInputs(r.Buyers),
	}
}

// UpdatePropertyRequest is the body of PUT /properties/{id}.
type UpdatePropertyRequest struct {
	DocumentNo        string `json:"document_no"`
	District          string `json:"district"`
	PlotNo            string `json:"plot_no"`
	AreaSqm           int64  `json:"area_sqm"`
	PriceAfs          int64  `json:"price_afs"`
	TransactionTypeID int64  `json:"transaction_type_id"`
}

func (r UpdatePropertyRequest) Validate() error {
	if r.TransactionTypeID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "transaction_type_id is required")
	}
	return nil
}

func (r UpdatePropertyRequest) toInput() service.UpdatePropertyInput {
	return service.UpdatePropertyInput{
		DocumentNo:        r.DocumentNo,
		District:          r.District,
		PlotNo:            r.PlotNo,
		AreaSqm:           r.AreaSqm,
		PriceAfs:          r.PriceAfs,
		TransactionTypeID: r.TransactionTypeID,
	}
}

// RegisterVehicleRequest is the body of POST /vehicles.
type RegisterVehicleRequest struct {
	PlateNo           string         `json:"plate_no"`
	ChassisNo         string         `json:"chassis_no"`
	EngineNo          string         `json:"engine_no"`
	Model             string         `json:"model"`
	PriceAfs          int64          `json:"price_afs"`
	TransactionTypeID int64          `json:"transaction_type_id"`
	Sellers           []PartyPayload `json:"sellers"`
	Buyers            []PartyPayload `json:"buyers"`
}

func (r RegisterVehicleRequest) Validate() error {
	if r.TransactionTypeID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "transaction_type_id is required")
	}
	return nil
}

func (r RegisterVehicleRequest) toInput() service.RegisterVehicleInput {
	return service.RegisterVehicleInput{
		PlateNo:           r.PlateNo,
		ChassisNo:         r.ChassisNo,
		EngineNo:          r.EngineNo,
		Model:             r.Model,
		PriceAfs:          r.PriceAfs,
		TransactionTypeID: r.TransactionTypeID,
		Sellers:           toPartyInputs(r.Sellers),
		Buyers:            toPartyInputs(r.Buyers),
	}
}

// UpdateVehicleRequest is the body of PUT /vehicles/{id}.
type UpdateVehicleRequest struct {
	PlateNo           string `json:"plate_no"`
	ChassisNo         string `json:"chassis_no"`
	EngineNo          string `json:"engine_no"`
	Model             string `json:"model"`
	PriceAfs          int64  `json:"price_afs"`
	TransactionTypeID int64  `json:"transaction_type_id"`
}

func (r UpdateVehicleRequest) Validate() error {
	if r.TransactionTypeID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "transaction_type_id is required")
	}
	return nil
}

func (r UpdateVehicleRequest) toInput() service.UpdateVehicleInput {
	return service.UpdateVehicleInput{
		PlateNo:           r.PlateNo,
		ChassisNo:         r.ChassisNo,
		EngineNo:          r.EngineNo,
		Model:             r.Model,
		PriceAfs:          r.PriceAfs,
		TransactionTypeID: r.TransactionTypeID,
	}
}

// CompanyRequest is the body of POST /companies and PUT /companies/{id}.
type CompanyRequest struct {
	Name        string  `json:"name"`
	LicenseNo   string  `json:"license_no"`
	LicenseType string  `json:"license_type"`
	Address     *string `json:"address,omitempty"`
}

func (r CompanyRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	return nil
}

func (r CompanyRequest) toInput() service.CompanyInput {
	return service.CompanyInput{
		Name:        r.Name,
		LicenseNo:   r.LicenseNo,
		LicenseType: authz.LicenseType(r.LicenseType),
		Address:     r.Address,
	}
}

// UpdatePartyRequest is the body of PUT /parties/{id}.
type UpdatePartyRequest struct {
	FirstName   string  `json:"first_name"`
	FatherName  string  `json:"father_name"`
	GrandFather string  `json:"grand_father"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
}

func (r UpdatePartyRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "first_name is required")
	}
	return nil
}

func (r UpdatePartyRequest) toInput() service.PartyInput {
	return service.PartyInput{
		FirstName:   r.FirstName,
		FatherName:  r.FatherName,
		GrandFather: r.GrandFather,
		Phone:       r.Phone,
		Address:     r.Address,
	}
}

// CancelRequest is the body of POST /properties/{id}/cancel and the vehicle
// equivalent.
type CancelRequest struct {
	Reason string `json:"reason"`
}

func (r CancelRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "reason is required")
	}
	return nil
}

package integration

import "time"

type connectRequest struct {
	Code string `json:"code"`
	// PIT connects via a private integration token instead of OAuth.
	PIT                   string  `json:"pit"`
	LocationID            string  `json:"locationId"`
	DefaultCommissionRate float64 `json:"defaultCommissionRate"`
}

// IntegrationDTO is the redacted shape returned to clients: connection
// metadata only, never token material.
type IntegrationDTO struct {
	ID                    uint      `json:"id"`
	Type                  string    `json:"type"`
	IsActive              bool      `json:"isActive"`
	LocationID            string    `json:"locationId"`
	CompanyID             string    `json:"companyId"`
	DefaultCommissionRate float64   `json:"defaultCommissionRate"`
	UsesPIT               bool      `json:"usesPit"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func toDTO(in Integration) IntegrationDTO {
	return IntegrationDTO{
		ID:                    in.ID,
		Type:                  in.Type,
		IsActive:              in.IsActive,
		LocationID:            in.Config.LocationID,
		CompanyID:             in.Config.CompanyID,
		DefaultCommissionRate: in.Config.DefaultCommissionRate,
		UsesPIT:               in.Config.PIT != "",
		CreatedAt:             in.CreatedAt,
		UpdatedAt:             in.UpdatedAt,
	}
}

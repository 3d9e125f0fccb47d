package integration

import (
	"time"

	"gorm.io/gorm"
)

const TypeGoHighLevel = "gohighlevel"

// Config is the JSONB blob stored on the integration row. Token fields hold
// AES-GCM ciphertext, never plaintext.
type Config struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	// PIT is an encrypted private integration token; when present it is
	// used instead of the OAuth pair.
	PIT                   string    `json:"pit,omitempty"`
	LocationID            string    `json:"locationId,omitempty"`
	CompanyID             string    `json:"companyId,omitempty"`
	TokenExpiresAt        time.Time `json:"tokenExpiresAt,omitempty"`
	DefaultCommissionRate float64   `json:"defaultCommissionRate,omitempty"`
}

// Integration is one external CRM connection per organization and type.
type Integration struct {
	gorm.Model
	OrganizationID uint   `gorm:"not null;uniqueIndex:idx_integrations_org_type" json:"organizationId"`
	Type           string `gorm:"size:50;not null;uniqueIndex:idx_integrations_org_type" json:"type"`
	Config         Config `gorm:"type:jsonb;serializer:json" json:"-"`
	IsActive       bool   `gorm:"not null;default:true;index" json:"isActive"`
}

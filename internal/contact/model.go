package contact

import "gorm.io/gorm"

// ContactCache is the denormalized snapshot of a GHL contact, keyed by
// (organization_id, contact_id).
type ContactCache struct {
	gorm.Model
	OrganizationID uint     `gorm:"not null;uniqueIndex:idx_contacts_org_contact" json:"organizationId"`
	ContactID      string   `gorm:"size:64;not null;uniqueIndex:idx_contacts_org_contact" json:"contactId"`
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Email          string   `gorm:"index" json:"email"`
	Phone          string   `json:"phone"`
	Tags           []string `gorm:"type:jsonb;serializer:json" json:"tags"`
}

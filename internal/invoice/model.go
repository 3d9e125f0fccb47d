package invoice

import (
	"time"

	"gorm.io/gorm"
)

// InvoiceCache is the denormalized snapshot of a GHL invoice, keyed by
// (organization_id, invoice_id).
type InvoiceCache struct {
	gorm.Model
	OrganizationID uint       `gorm:"not null;uniqueIndex:idx_invoices_org_inv" json:"organizationId"`
	InvoiceID      string     `gorm:"size:64;not null;uniqueIndex:idx_invoices_org_inv" json:"invoiceId"`
	Name           string     `json:"name"`
	ContactID      string     `gorm:"size:64;index" json:"contactId"`
	Total          float64    `gorm:"not null;default:0" json:"total"`
	Status         string     `gorm:"size:50;index" json:"status"`
	IssuedAt       *time.Time `json:"issuedAt"`
	DueAt          *time.Time `json:"dueAt"`
}

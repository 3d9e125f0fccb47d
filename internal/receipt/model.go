package receipt

import (
	"time"

	"gorm.io/gorm"
)

const (
	CardPersonal = "personal"
	CardCompany  = "company"
)

// Receipt is one expense record. Company-card purchases are never
// reimbursable: the money already left the company account.
type Receipt struct {
	gorm.Model
	OrganizationID uint      `gorm:"not null;index" json:"organizationId"`
	UserID         uint      `gorm:"not null;index" json:"userId"`
	Vendor         string    `gorm:"not null" json:"vendor"`
	Amount         float64   `gorm:"not null;default:0" json:"amount"`
	Category       string    `gorm:"size:100;index" json:"category"`
	CardType       string    `gorm:"size:20;not null;default:'personal'" json:"cardType"`
	Reimbursable   bool      `gorm:"not null;default:false" json:"reimbursable"`
	Note           string    `json:"note"`
	ReceiptDate    time.Time `gorm:"index" json:"receiptDate"`
}

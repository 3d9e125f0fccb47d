package teampayment

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// TeamPayment is one payout owed to a team member for a period.
type TeamPayment struct {
	gorm.Model
	OrganizationID uint       `gorm:"not null;index" json:"organizationId"`
	PayeeUserID    uint       `gorm:"not null;index" json:"payeeUserId"`
	Amount         float64    `gorm:"not null;default:0" json:"amount"`
	Method         string     `gorm:"size:50" json:"method"`
	Status         string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Period         string     `gorm:"size:7;index" json:"period"` // YYYY-MM
	Note           string     `json:"note"`
	PaidDate       *time.Time `json:"paidDate"`
}

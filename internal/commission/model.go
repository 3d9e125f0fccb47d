package commission

import (
	"time"

	"gorm.io/gorm"
)

const (
	TypePercentageGross  = "percentage_gross"
	TypePercentageProfit = "percentage_profit"
	TypeFlat             = "flat"
)

// CommissionAssignment says who earns what on a deal. One row per
// (organization, opportunity, ghl user).
type CommissionAssignment struct {
	gorm.Model
	OrganizationID uint       `gorm:"not null;uniqueIndex:idx_commissions_org_opp_user" json:"organizationId"`
	OpportunityID  string     `gorm:"size:64;not null;uniqueIndex:idx_commissions_org_opp_user" json:"opportunityId"`
	GHLUserID      string     `gorm:"size:64;not null;uniqueIndex:idx_commissions_org_opp_user;column:ghl_user_id" json:"ghlUserId"`
	CommissionType string     `gorm:"size:50;not null;default:'percentage_gross'" json:"commissionType"`
	BaseRate       float64    `gorm:"not null;default:0" json:"baseRate"`
	IsPaid         bool       `gorm:"not null;default:false;index" json:"isPaid"`
	IsDisabled     bool       `gorm:"not null;default:false;index" json:"isDisabled"`
	PaidAmount     float64    `gorm:"not null;default:0" json:"paidAmount"`
	PaidDate       *time.Time `json:"paidDate"`
}

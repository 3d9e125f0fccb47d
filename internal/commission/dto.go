package commission

import "time"

type createAssignmentRequest struct {
	OpportunityID  string  `json:"opportunityId"`
	GHLUserID      string  `json:"ghlUserId"`
	CommissionType string  `json:"commissionType"`
	BaseRate       float64 `json:"baseRate"`
}

type markPaidRequest struct {
	PaidAmount *float64   `json:"paidAmount"`
	PaidDate   *time.Time `json:"paidDate"`
}

// AssignmentWithAmount decorates an assignment with the deal value and the
// derived commission amount.
type AssignmentWithAmount struct {
	CommissionAssignment
	MonetaryValue float64 `json:"monetaryValue"`
	Amount        float64 `json:"amount"`
}

// SummaryDTO is the per-organization rollup of eligible assignments.
type SummaryDTO struct {
	TotalEarned   float64 `json:"totalEarned"`
	TotalPaid     float64 `json:"totalPaid"`
	TotalPending  float64 `json:"totalPending"`
	Assignments   int     `json:"assignments"`
	PaidCount     int     `json:"paidCount"`
	DisabledCount int     `json:"disabledCount"`
}

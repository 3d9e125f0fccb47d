package opportunity

import "gorm.io/gorm"

// OpportunityCache is the denormalized snapshot of a GHL deal that the
// search and commission routes read, keyed by (organization_id,
// opportunity_id).
type OpportunityCache struct {
	gorm.Model
	OrganizationID uint    `gorm:"not null;uniqueIndex:idx_opps_org_opp" json:"organizationId"`
	OpportunityID  string  `gorm:"size:64;not null;uniqueIndex:idx_opps_org_opp" json:"opportunityId"`
	Name           string  `json:"name"`
	ContactID      string  `gorm:"size:64;index" json:"contactId"`
	ContactName    string  `json:"contactName"`
	ContactEmail   string  `json:"contactEmail"`
	MonetaryValue  float64 `gorm:"not null;default:0" json:"monetaryValue"`
	PipelineID     string  `gorm:"size:64" json:"pipelineId"`
	Stage          string  `gorm:"size:128;index" json:"stage"`
	Status         string  `gorm:"size:50;index" json:"status"`
	AssignedTo     string  `gorm:"size:64;index" json:"assignedTo"`
}

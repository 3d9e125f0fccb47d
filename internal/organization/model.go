package organization

import "gorm.io/gorm"

// Subscription lifecycle mirrors what the billing webhooks write.
const (
	StatusTrialing = "trialing"
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Organization is the tenant boundary; every business row carries its id.
type Organization struct {
	gorm.Model
	Name               string `gorm:"not null" json:"name"`
	Slug               string `gorm:"uniqueIndex;not null" json:"slug"`
	SubscriptionPlan   string `gorm:"size:50;not null;default:'free'" json:"subscriptionPlan"`
	SubscriptionStatus string `gorm:"size:50;not null;default:'trialing'" json:"subscriptionStatus"`
}

// OrganizationMember links a user to a tenant with a role. Memberships are
// never hard-deleted; IsActive=false removes access.
type OrganizationMember struct {
	gorm.Model
	OrganizationID uint   `gorm:"not null;uniqueIndex:idx_org_members_org_user" json:"organizationId"`
	UserID         uint   `gorm:"not null;uniqueIndex:idx_org_members_org_user" json:"userId"`
	Role           string `gorm:"size:20;not null;default:'member'" json:"role"`
	IsActive       bool   `gorm:"not null;default:true" json:"isActive"`
}

package commission

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ListFilter narrows List; nil booleans mean "no filter".
type ListFilter struct {
	OpportunityID string
	GHLUserID     string
	IsPaid        *bool
	IsDisabled    *bool
}

type Repository interface {
	Upsert(db *gorm.DB, a *CommissionAssignment) (*CommissionAssignment, error)
	FindByID(db *gorm.DB, orgID, id uint) (*CommissionAssignment, error)
	List(db *gorm.DB, orgID uint, f ListFilter) ([]CommissionAssignment, error)
	ListWithValues(db *gorm.DB, orgID uint, f ListFilter) ([]AssignmentWithAmount, error)
	MarkPaid(db *gorm.DB, orgID, id uint, amount float64, date time.Time) error
	ToggleDisabled(db *gorm.DB, orgID, id uint) (*CommissionAssignment, error)
	Delete(db *gorm.DB, orgID, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// Upsert keys on (organization_id, opportunity_id, ghl_user_id). Sync calls
// this repeatedly; payment state on existing rows is left alone.
func (r *repositoryImpl) Upsert(db *gorm.DB, a *CommissionAssignment) (*CommissionAssignment, error) {
	var existing CommissionAssignment
	err := db.Where("organization_id = ? AND opportunity_id = ? AND ghl_user_id = ?",
		a.OrganizationID, a.OpportunityID, a.GHLUserID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(a).Error; err != nil {
			return nil, err
		}
		return a, nil
	}
	if err != nil {
		return nil, err
	}

	existing.CommissionType = a.CommissionType
	existing.BaseRate = a.BaseRate
	if err := db.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *repositoryImpl) FindByID(db *gorm.DB, orgID, id uint) (*CommissionAssignment, error) {
	var a CommissionAssignment
	err := db.Where("organization_id = ?", orgID).First(&a, id).Error
	return &a, err
}

func applyFilter(q *gorm.DB, f ListFilter) *gorm.DB {
	if f.OpportunityID != "" {
		q = q.Where("opportunity_id = ?", f.OpportunityID)
	}
	if f.GHLUserID != "" {
		q = q.Where("ghl_user_id = ?", f.GHLUserID)
	}
	if f.IsPaid != nil {
		q = q.Where("is_paid = ?", *f.IsPaid)
	}
	if f.IsDisabled != nil {
		q = q.Where("is_disabled = ?", *f.IsDisabled)
	}
	return q
}

func (r *repositoryImpl) List(db *gorm.DB, orgID uint, f ListFilter) ([]CommissionAssignment, error) {
	var list []CommissionAssignment
	q := applyFilter(db.Where("organization_id = ?", orgID), f)
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

// ListWithValues joins the opportunity cache so callers get deal value and
// derived amount in one read.
func (r *repositoryImpl) ListWithValues(db *gorm.DB, orgID uint, f ListFilter) ([]AssignmentWithAmount, error) {
	var rows []AssignmentWithAmount
	q := db.Table("commission_assignments").
		Select("commission_assignments.*, COALESCE(opportunity_caches.monetary_value, 0) AS monetary_value").
		Joins("LEFT JOIN opportunity_caches ON opportunity_caches.opportunity_id = commission_assignments.opportunity_id"+
			" AND opportunity_caches.organization_id = commission_assignments.organization_id").
		Where("commission_assignments.organization_id = ?", orgID)
	q = applyFilter(q, f)
	if err := q.Order("commission_assignments.created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Amount = ComputeAmount(rows[i].MonetaryValue, rows[i].CommissionType, rows[i].BaseRate)
	}
	return rows, nil
}

func (r *repositoryImpl) MarkPaid(db *gorm.DB, orgID, id uint, amount float64, date time.Time) error {
	res := db.Model(&CommissionAssignment{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Updates(map[string]interface{}{
			"is_paid":     true,
			"paid_amount": amount,
			"paid_date":   &date,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repositoryImpl) ToggleDisabled(db *gorm.DB, orgID, id uint) (*CommissionAssignment, error) {
	a, err := r.FindByID(db, orgID, id)
	if err != nil {
		return nil, err
	}
	a.IsDisabled = !a.IsDisabled
	if err := db.Save(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repositoryImpl) Delete(db *gorm.DB, orgID, id uint) error {
	res := db.Where("organization_id = ?", orgID).Delete(&CommissionAssignment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

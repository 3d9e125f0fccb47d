package opportunity

import (
	"errors"

	"gorm.io/gorm"
)

// SearchQuery carries the filters the search route accepts.
type SearchQuery struct {
	Text       string
	Stage      string
	Status     string
	AssignedTo string
	Limit      int
	Offset     int
}

type Repository interface {
	Upsert(db *gorm.DB, o *OpportunityCache) (created bool, err error)
	FindByExternalID(db *gorm.DB, orgID uint, opportunityID string) (*OpportunityCache, error)
	Search(db *gorm.DB, orgID uint, q SearchQuery) ([]OpportunityCache, int64, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// Upsert keys on (organization_id, opportunity_id): latest snapshot wins.
// Reports whether a new row was created so sync can seed commission
// assignments for first-seen deals only.
func (r *repositoryImpl) Upsert(db *gorm.DB, o *OpportunityCache) (bool, error) {
	var existing OpportunityCache
	err := db.Where("organization_id = ? AND opportunity_id = ?", o.OrganizationID, o.OpportunityID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(o).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	existing.Name = o.Name
	existing.ContactID = o.ContactID
	existing.ContactName = o.ContactName
	existing.ContactEmail = o.ContactEmail
	existing.MonetaryValue = o.MonetaryValue
	existing.PipelineID = o.PipelineID
	existing.Stage = o.Stage
	existing.Status = o.Status
	existing.AssignedTo = o.AssignedTo
	if err := db.Save(&existing).Error; err != nil {
		return false, err
	}
	o.ID = existing.ID
	return false, nil
}

func (r *repositoryImpl) FindByExternalID(db *gorm.DB, orgID uint, opportunityID string) (*OpportunityCache, error) {
	var o OpportunityCache
	err := db.Where("organization_id = ? AND opportunity_id = ?", orgID, opportunityID).First(&o).Error
	return &o, err
}

func (r *repositoryImpl) Search(db *gorm.DB, orgID uint, q SearchQuery) ([]OpportunityCache, int64, error) {
	base := db.Model(&OpportunityCache{}).Where("organization_id = ?", orgID)
	if q.Text != "" {
		like := "%" + q.Text + "%"
		base = base.Where("name LIKE ? OR contact_name LIKE ? OR contact_email LIKE ?", like, like, like)
	}
	if q.Stage != "" {
		base = base.Where("stage = ?", q.Stage)
	}
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	if q.AssignedTo != "" {
		base = base.Where("assigned_to = ?", q.AssignedTo)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []OpportunityCache
	err := base.Order("updated_at DESC").Limit(limit).Offset(q.Offset).Find(&list).Error
	return list, total, err
}

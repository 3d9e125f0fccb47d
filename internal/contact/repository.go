package contact

import (
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Upsert(db *gorm.DB, c *ContactCache) error
	List(db *gorm.DB, orgID uint, search string, limit, offset int) ([]ContactCache, error)
	CountByEmail(db *gorm.DB, orgID uint, email string) (int64, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// Upsert keys on (organization_id, contact_id); syncing the same contact
// twice leaves one row carrying the latest values.
func (r *repositoryImpl) Upsert(db *gorm.DB, c *ContactCache) error {
	var existing ContactCache
	err := db.Where("organization_id = ? AND contact_id = ?", c.OrganizationID, c.ContactID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(c).Error
	}
	if err != nil {
		return err
	}

	existing.FirstName = c.FirstName
	existing.LastName = c.LastName
	existing.Email = c.Email
	existing.Phone = c.Phone
	existing.Tags = c.Tags
	return db.Save(&existing).Error
}

func (r *repositoryImpl) List(db *gorm.DB, orgID uint, search string, limit, offset int) ([]ContactCache, error) {
	q := db.Where("organization_id = ?", orgID)
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", like, like, like)
	}
	var list []ContactCache
	err := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *repositoryImpl) CountByEmail(db *gorm.DB, orgID uint, email string) (int64, error) {
	var count int64
	err := db.Model(&ContactCache{}).
		Where("organization_id = ? AND email = ? AND email <> ''", orgID, email).
		Count(&count).Error
	return count, err
}

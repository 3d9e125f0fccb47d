package invoice

import (
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Upsert(db *gorm.DB, inv *InvoiceCache) error
	List(db *gorm.DB, orgID uint, status string, limit, offset int) ([]InvoiceCache, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// Upsert keys on (organization_id, invoice_id); latest snapshot wins.
func (r *repositoryImpl) Upsert(db *gorm.DB, inv *InvoiceCache) error {
	var existing InvoiceCache
	err := db.Where("organization_id = ? AND invoice_id = ?", inv.OrganizationID, inv.InvoiceID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(inv).Error
	}
	if err != nil {
		return err
	}

	existing.Name = inv.Name
	existing.ContactID = inv.ContactID
	existing.Total = inv.Total
	existing.Status = inv.Status
	existing.IssuedAt = inv.IssuedAt
	existing.DueAt = inv.DueAt
	return db.Save(&existing).Error
}

func (r *repositoryImpl) List(db *gorm.DB, orgID uint, status string, limit, offset int) ([]InvoiceCache, error) {
	q := db.Where("organization_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []InvoiceCache
	err := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

package receipt

import (
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Save(db *gorm.DB, rc *Receipt) error
	FindByID(db *gorm.DB, orgID, id uint) (*Receipt, error)
	List(db *gorm.DB, orgID uint, category string, month *time.Time) ([]Receipt, error)
	Delete(db *gorm.DB, orgID, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// Save is the single place the reimbursable rule lives: company-card
// receipts are forced non-reimbursable regardless of what the caller sent.
func (r *repositoryImpl) Save(db *gorm.DB, rc *Receipt) error {
	if rc.CardType == CardCompany {
		rc.Reimbursable = false
	}
	return db.Save(rc).Error
}

func (r *repositoryImpl) FindByID(db *gorm.DB, orgID, id uint) (*Receipt, error) {
	var rc Receipt
	err := db.Where("organization_id = ?", orgID).First(&rc, id).Error
	return &rc, err
}

func (r *repositoryImpl) List(db *gorm.DB, orgID uint, category string, month *time.Time) ([]Receipt, error) {
	q := db.Where("organization_id = ?", orgID)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if month != nil {
		start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
		q = q.Where("receipt_date >= ? AND receipt_date < ?", start, start.AddDate(0, 1, 0))
	}
	var list []Receipt
	err := q.Order("receipt_date DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) Delete(db *gorm.DB, orgID, id uint) error {
	res := db.Where("organization_id = ?", orgID).Delete(&Receipt{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

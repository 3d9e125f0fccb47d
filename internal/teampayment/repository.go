package teampayment

import (
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Save(db *gorm.DB, p *TeamPayment) error
	FindByID(db *gorm.DB, orgID, id uint) (*TeamPayment, error)
	List(db *gorm.DB, orgID uint, status, period string) ([]TeamPayment, error)
	MarkPaid(db *gorm.DB, orgID, id uint, date time.Time) error
	Delete(db *gorm.DB, orgID, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Save(db *gorm.DB, p *TeamPayment) error {
	return db.Save(p).Error
}

func (r *repositoryImpl) FindByID(db *gorm.DB, orgID, id uint) (*TeamPayment, error) {
	var p TeamPayment
	err := db.Where("organization_id = ?", orgID).First(&p, id).Error
	return &p, err
}

func (r *repositoryImpl) List(db *gorm.DB, orgID uint, status, period string) ([]TeamPayment, error) {
	q := db.Where("organization_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if period != "" {
		q = q.Where("period = ?", period)
	}
	var list []TeamPayment
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) MarkPaid(db *gorm.DB, orgID, id uint, date time.Time) error {
	res := db.Model(&TeamPayment{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Updates(map[string]interface{}{
			"status":    StatusPaid,
			"paid_date": &date,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repositoryImpl) Delete(db *gorm.DB, orgID, id uint) error {
	res := db.Where("organization_id = ?", orgID).Delete(&TeamPayment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package integration

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotConnected means no active integration row exists for the org.
var ErrNotConnected = errors.New("integration not connected")

type Repository interface {
	Upsert(db *gorm.DB, in *Integration) (*Integration, error)
	FindActive(db *gorm.DB, orgID uint, integrationType string) (*Integration, error)
	ListByOrganization(db *gorm.DB, orgID uint) ([]Integration, error)
	SaveConfig(db *gorm.DB, id uint, cfg Config) error
	Deactivate(db *gorm.DB, orgID uint, integrationType string) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// Upsert keys on (organization_id, type): the existing row is updated in
// place, so connecting twice leaves one row with the latest config.
func (r *repositoryImpl) Upsert(db *gorm.DB, in *Integration) (*Integration, error) {
	var existing Integration
	err := db.Where("organization_id = ? AND type = ?", in.OrganizationID, in.Type).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(in).Error; err != nil {
			return nil, err
		}
		return in, nil
	}
	if err != nil {
		return nil, err
	}

	existing.Config = in.Config
	existing.IsActive = in.IsActive
	if err := db.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *repositoryImpl) FindActive(db *gorm.DB, orgID uint, integrationType string) (*Integration, error) {
	var in Integration
	err := db.Where("organization_id = ? AND type = ? AND is_active = ?", orgID, integrationType, true).
		First(&in).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *repositoryImpl) ListByOrganization(db *gorm.DB, orgID uint) ([]Integration, error) {
	var list []Integration
	err := db.Where("organization_id = ?", orgID).Order("type ASC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) SaveConfig(db *gorm.DB, id uint, cfg Config) error {
	return db.Model(&Integration{}).Where("id = ?", id).Update("config", cfg).Error
}

func (r *repositoryImpl) Deactivate(db *gorm.DB, orgID uint, integrationType string) error {
	res := db.Model(&Integration{}).
		Where("organization_id = ? AND type = ?", orgID, integrationType).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

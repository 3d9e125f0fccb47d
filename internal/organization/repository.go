package organization

import (
	"strings"

	"gorm.io/gorm"
)

type MemberWithUser struct {
	OrganizationMember
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Repository interface {
	FindByID(db *gorm.DB, id uint) (*Organization, error)
	FindBySlug(db *gorm.DB, slug string) (*Organization, error)
	Save(db *gorm.DB, org *Organization) error
	UpdateSubscription(db *gorm.DB, id uint, plan, status string) error
	ListMembers(db *gorm.DB, orgID uint) ([]MemberWithUser, error)
	AddMember(db *gorm.DB, m *OrganizationMember) error
	FindMember(db *gorm.DB, orgID, userID uint) (*OrganizationMember, error)
	UpdateMemberRole(db *gorm.DB, orgID, userID uint, role string) error
	ReactivateMember(db *gorm.DB, orgID, userID uint, role string) error
	DeactivateMember(db *gorm.DB, orgID, userID uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Organization, error) {
	var org Organization
	err := db.First(&org, id).Error
	return &org, err
}

func (r *repositoryImpl) FindBySlug(db *gorm.DB, slug string) (*Organization, error) {
	var org Organization
	err := db.Where("slug = ?", slug).First(&org).Error
	return &org, err
}

func (r *repositoryImpl) Save(db *gorm.DB, org *Organization) error {
	return db.Save(org).Error
}

func (r *repositoryImpl) UpdateSubscription(db *gorm.DB, id uint, plan, status string) error {
	updates := map[string]interface{}{}
	if plan != "" {
		updates["subscription_plan"] = plan
	}
	if status != "" {
		updates["subscription_status"] = status
	}
	if len(updates) == 0 {
		return nil
	}
	return db.Model(&Organization{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repositoryImpl) ListMembers(db *gorm.DB, orgID uint) ([]MemberWithUser, error) {
	var members []MemberWithUser
	err := db.Table("organization_members").
		Select("organization_members.*, users.email, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = organization_members.user_id").
		Where("organization_members.organization_id = ?", orgID).
		Order("organization_members.created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *repositoryImpl) AddMember(db *gorm.DB, m *OrganizationMember) error {
	return db.Create(m).Error
}

func (r *repositoryImpl) FindMember(db *gorm.DB, orgID, userID uint) (*OrganizationMember, error) {
	var m OrganizationMember
	err := db.Where("organization_id = ? AND user_id = ?", orgID, userID).First(&m).Error
	return &m, err
}

func (r *repositoryImpl) UpdateMemberRole(db *gorm.DB, orgID, userID uint, role string) error {
	res := db.Model(&OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReactivateMember revives a soft-removed membership under a new role.
func (r *repositoryImpl) ReactivateMember(db *gorm.DB, orgID, userID uint, role string) error {
	res := db.Model(&OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Updates(map[string]interface{}{"is_active": true, "role": role})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeactivateMember flips is_active; membership rows are kept forever.
func (r *repositoryImpl) DeactivateMember(db *gorm.DB, orgID, userID uint) error {
	res := db.Model(&OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Slugify builds a URL-safe slug from an organization name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	prevDash := false
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash && b.Len() > 0 {
				b.WriteRune('-')
				prevDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

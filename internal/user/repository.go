package user

import "gorm.io/gorm"

type Repository interface {
	FindByEmail(db *gorm.DB, email string) (*User, error)
	FindByID(db *gorm.DB, id uint) (*User, error)
	Save(db *gorm.DB, u *User) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) FindByEmail(db *gorm.DB, email string) (*User, error) {
	var u User
	err := db.Where("email = ?", email).First(&u).Error
	return &u, err
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*User, error) {
	var u User
	err := db.First(&u, id).Error
	return &u, err
}

func (r *repositoryImpl) Save(db *gorm.DB, u *User) error {
	return db.Save(u).Error
}

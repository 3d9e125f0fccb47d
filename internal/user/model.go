package user

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Email              string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	PasswordHash       string `json:"-"`
	NeedsPasswordReset bool   `json:"-"`
}

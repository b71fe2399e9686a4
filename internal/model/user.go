package model

import (
	"time"
)

type UserRole string

const (
	Employee UserRole = "employee"
	Manager  UserRole = "manager"
	Admin    UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name       string    `gorm:"size:100;not null" json:"name"`
	Email      string    `gorm:"size:100;unique;not null" json:"email"`
	Password   string    `gorm:"size:100;not null" json:"-"`
	Role       UserRole  `gorm:"type:enum('employee','manager','admin');default:'employee'" json:"role"`
	Department string    `gorm:"size:100" json:"department"`
	Country    string    `gorm:"size:100" json:"country"`
	Disabled   bool      `gorm:"default:false" json:"disabled"`
	LastLogin  time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

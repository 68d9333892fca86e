package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleCustomer   UserRole = "customer"
	RoleRestaurant UserRole = "restaurant"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleRestaurant:
		return true
	}
	return false
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null;size:150"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         UserRole  `json:"role" gorm:"not null;default:'customer'"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate keeps new restaurant owners inactive until an admin approves them.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.IsActive = u.Role != RoleRestaurant
	return nil
}

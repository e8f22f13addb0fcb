package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	UserStatusPending  = "pending"
	UserStatusApproved = "approved"
	UserStatusRejected = "rejected"
)

type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Username        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Password        string    `gorm:"type:varchar(255);not null" json:"-"`
	Name            string    `gorm:"type:varchar(255)" json:"name"`
	Email           string    `gorm:"type:varchar(320)" json:"email"`
	LoginMethod     string    `gorm:"type:varchar(64)" json:"login_method"`
	Role            string    `gorm:"type:varchar(16);not null" json:"role"`
	Status          string    `gorm:"type:varchar(16);not null" json:"status"`
	PharmacyName    string    `gorm:"type:varchar(255)" json:"pharmacy_name"`
	PharmacyAddress string    `gorm:"type:text" json:"pharmacy_address"`
	PharmacyPhone   string    `gorm:"type:varchar(20)" json:"pharmacy_phone"`
	LastSignedIn    time.Time `json:"last_signed_in"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func IsValidRole(s string) bool {
	return s == RoleUser || s == RoleAdmin
}

func IsValidUserStatus(s string) bool {
	return s == UserStatusPending || s == UserStatusApproved || s == UserStatusRejected
}

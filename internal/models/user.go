package models

import "time"

type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleAdvisor UserRole = "advisor"
	RoleAdmin   UserRole = "admin"
)

// ParseUserRole yalnızca kapalı rol kümesini kabul eder.
func ParseUserRole(s string) (UserRole, bool) {
	switch UserRole(s) {
	case RoleUser, RoleAdvisor, RoleAdmin:
		return UserRole(s), true
	}
	return "", false
}

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	Phone        string   `gorm:"size:50"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

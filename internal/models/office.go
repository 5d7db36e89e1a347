package models

import "time"

// Office - emlak ofisi (şube)
type Office struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	Address   string `gorm:"size:255"`
	Phone     string `gorm:"size:50"`
	Province  string `gorm:"size:100;index"`
	District  string `gorm:"size:100"`
	ImageURL  string `gorm:"size:500"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Advisors []AdvisorProfile
}

// AdvisorProfile - danışman rolündeki kullanıcının vitrin bilgileri
type AdvisorProfile struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"uniqueIndex;not null"`
	User      User
	OfficeID  *uint `gorm:"index"`
	Name      string `gorm:"size:100;not null"`
	Title     string `gorm:"size:100"`
	Phone     string `gorm:"size:50"`
	Email     string `gorm:"size:100"`
	ImageURL  string `gorm:"size:500"`
	Bio       string `gorm:"size:2000"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

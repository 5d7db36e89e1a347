package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Currency string

const (
	CurrencyTL  Currency = "TL"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

func (c Currency) Valid() bool {
	return c == CurrencyTL || c == CurrencyUSD || c == CurrencyEUR
}

type Category string

const (
	CategoryResidential Category = "residential"
	CategoryCommercial  Category = "commercial"
	CategoryLand        Category = "land"
)

func (c Category) Valid() bool {
	return c == CategoryResidential || c == CategoryCommercial || c == CategoryLand
}

// ListingIntent: satılık mı kiralık mı
type ListingIntent string

const (
	IntentSale ListingIntent = "sale"
	IntentRent ListingIntent = "rent"
)

func (i ListingIntent) Valid() bool {
	return i == IntentSale || i == IntentRent
}

// ListingStatus: yönetici onay durumu
type ListingStatus string

const (
	StatusPending  ListingStatus = "pending"
	StatusApproved ListingStatus = "approved"
	StatusRejected ListingStatus = "rejected"
)

func (s ListingStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// ListingState: onay sonrası durum
type ListingState string

const (
	StateActive ListingState = "active"
	StateSold   ListingState = "sold"
	StateRented ListingState = "rented"
)

func (s ListingState) Valid() bool {
	return s == StateActive || s == StateSold || s == StateRented
}

// Property - ilan
type Property struct {
	ID        uint  `gorm:"primaryKey"`
	CreatedBy uint  `gorm:"index;not null"`
	AdvisorID *uint `gorm:"index"`

	Title       string   `gorm:"size:200;not null"`
	Description string   `gorm:"type:text"`
	Price       float64  `gorm:"not null"`
	Currency    Currency `gorm:"size:3;not null;default:TL"`
	Category    Category `gorm:"size:20;not null;index"`

	Province     string `gorm:"size:100;index"`
	District     string `gorm:"size:100;index"`
	Neighborhood string `gorm:"size:100"`

	ListingIntent ListingIntent `gorm:"size:10;not null"`
	ListingStatus ListingStatus `gorm:"size:10;not null;index;default:pending"`
	ListingState  ListingState  `gorm:"size:10;not null;default:active"`

	IsFeatured       bool
	ModerationReason string `gorm:"size:500"` // sadece yönetici görür
	ApprovedAt       *time.Time
	ViewCount        int64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Detail *PropertyDetail `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Images []PropertyImage `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

// PropertyDetail - ilanın fiziksel özellikleri (1-1)
type PropertyDetail struct {
	ID           uint `gorm:"primaryKey"`
	PropertyID   uint `gorm:"uniqueIndex;not null"`
	Bedrooms     int
	Bathrooms    int
	GrossArea    float64 `gorm:"index"`
	NetArea      float64
	Floor        string `gorm:"size:20"`
	HeatingType  string `gorm:"size:50"`
	BuildingAge  int
	Furnished    bool
	BalconyCount int
	HasBalcony   bool
	InComplex    bool
	Features     datatypes.JSON // ["asansör","otopark",...]
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PropertyImage - ilan fotoğrafları (sıralı, bir tanesi kapak)
type PropertyImage struct {
	ID         uint   `gorm:"primaryKey"`
	PropertyID uint   `gorm:"index;not null"`
	URL        string `gorm:"size:500;not null"`
	SortOrder  int    `gorm:"not null;default:0"`
	IsCover    bool   `gorm:"default:false"`
	CreatedAt  time.Time
}

// ErrorLog - 5xx hatalarının maskelenmiş kaydı
type ErrorLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RequestID string    `gorm:"size:64;index" json:"request_id"`
	Method    string    `gorm:"size:10" json:"method"`
	Path      string    `gorm:"size:255" json:"path"`
	Code      string    `gorm:"size:50" json:"code"`
	Detail    string    `gorm:"type:text" json:"detail"`
}

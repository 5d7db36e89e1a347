package database

import (
	"context"
	"errors"

	"emlak-backend/internal/listing"
	"emlak-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PropertyStore is the PostgreSQL listing.Store.
type PropertyStore struct {
	db *gorm.DB
}

var _ listing.Store = (*PropertyStore)(nil)

func NewPropertyStore(db *gorm.DB) *PropertyStore {
	return &PropertyStore{db: db}
}

func (s *PropertyStore) InTransaction(ctx context.Context, fn func(tx listing.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PropertyStore{db: tx})
	})
}

// withRelations detay ve sıralı fotoğrafları birlikte yükler
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Detail").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		})
}

func (s *PropertyStore) FindProperties(ctx context.Context, pred listing.Predicate) ([]models.Property, error) {
	q := s.db.WithContext(ctx).
		Model(&models.Property{}).
		Select("properties.*").
		Joins("LEFT JOIN property_details ON property_details.property_id = properties.id")

	if where, args := pred.SQL(); where != "" {
		q = q.Where(where, args...)
	}

	var out []models.Property
	err := withRelations(q).
		Order("properties.is_featured DESC, properties.created_at DESC, properties.id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Property{}
	}
	return out, nil
}

func (s *PropertyStore) FindPropertyByID(ctx context.Context, id uint) (*models.Property, error) {
	var p models.Property
	if err := withRelations(s.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *PropertyStore) InsertProperty(ctx context.Context, p *models.Property) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (s *PropertyStore) InsertDetail(ctx context.Context, d *models.PropertyDetail) error {
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *PropertyStore) InsertImages(ctx context.Context, propertyID uint, imgs []models.PropertyImage) error {
	if len(imgs) == 0 {
		return nil
	}
	for i := range imgs {
		imgs[i].ID = 0
		imgs[i].PropertyID = propertyID
	}
	return s.db.WithContext(ctx).Create(&imgs).Error
}

// UpdateProperty writes every column, zero values included. created_by and
// created_at never change after insert.
func (s *PropertyStore) UpdateProperty(ctx context.Context, p *models.Property) error {
	res := s.db.WithContext(ctx).
		Model(p).
		Select("*").
		Omit(clause.Associations, "id", "created_by", "created_at", "deleted_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return listing.ErrNotFound
	}
	return nil
}

// SaveDetail upserts on property_id.
func (s *PropertyStore) SaveDetail(ctx context.Context, d *models.PropertyDetail) error {
	d.ID = 0
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "property_id"}},
			UpdateAll: true,
		}).
		Create(d).Error
}

func (s *PropertyStore) ReplaceImages(ctx context.Context, propertyID uint, imgs []models.PropertyImage) error {
	err := s.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Delete(&models.PropertyImage{}).Error
	if err != nil {
		return err
	}
	return s.InsertImages(ctx, propertyID, imgs)
}

func (s *PropertyStore) SoftDeleteProperty(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Property{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return listing.ErrNotFound
	}
	return nil
}

func (s *PropertyStore) IncrementViewCount(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return listing.ErrNotFound
	}
	return nil
}

//go:build integration

package database_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"emlak-backend/internal/auth"
	"emlak-backend/internal/database"
	"emlak-backend/internal/listing"
	"emlak-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("emlak_test"),
		postgres.WithUsername("emlak"),
		postgres.WithPassword("emlak"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func uptr(v uint) *uint { return &v }

func seedProperty(t *testing.T, store *database.PropertyStore, p models.Property, d *models.PropertyDetail) models.Property {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.InTransaction(ctx, func(tx listing.Store) error {
		if err := tx.InsertProperty(ctx, &p); err != nil {
			return err
		}
		if d != nil {
			d.PropertyID = p.ID
			return tx.InsertDetail(ctx, d)
		}
		return nil
	}))
	return p
}

func TestPropertyStore(t *testing.T) {
	db := setupDB(t)
	store := database.NewPropertyStore(db)
	ctx := context.Background()

	t.Run("failed transaction leaves no rows", func(t *testing.T) {
		boom := errors.New("boom")
		var id uint
		err := store.InTransaction(ctx, func(tx listing.Store) error {
			p := models.Property{CreatedBy: 1, Title: "Geri alınacak", Price: 10, Category: models.CategoryLand,
				ListingIntent: models.IntentSale, ListingStatus: models.StatusPending, ListingState: models.StateActive}
			if err := tx.InsertProperty(ctx, &p); err != nil {
				return err
			}
			id = p.ID
			if err := tx.InsertDetail(ctx, &models.PropertyDetail{PropertyID: p.ID, Bedrooms: 2}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		require.NotZero(t, id)

		_, err = store.FindPropertyByID(ctx, id)
		assert.ErrorIs(t, err, listing.ErrNotFound)

		var details int64
		require.NoError(t, db.Model(&models.PropertyDetail{}).Where("property_id = ?", id).Count(&details).Error)
		assert.Zero(t, details)
	})

	t.Run("find agrees with in-memory matching", func(t *testing.T) {
		seeded := []models.Property{
			seedProperty(t, store, models.Property{CreatedBy: 3, AdvisorID: uptr(2), Title: "A", Price: 100000,
				Category: models.CategoryResidential, Province: "İstanbul", ListingIntent: models.IntentSale,
				ListingStatus: models.StatusApproved, ListingState: models.StateActive},
				&models.PropertyDetail{Bedrooms: 3, GrossArea: 120, HasBalcony: true, Features: datatypes.JSON(`[]`)}),
			seedProperty(t, store, models.Property{CreatedBy: 3, Title: "B", Price: 5000,
				Category: models.CategoryResidential, Province: "İstanbul", ListingIntent: models.IntentRent,
				ListingStatus: models.StatusPending, ListingState: models.StateActive}, nil),
			seedProperty(t, store, models.Property{CreatedBy: 4, AdvisorID: uptr(2), Title: "C", Price: 900000,
				Category: models.CategoryCommercial, Province: "Ankara", ListingIntent: models.IntentSale,
				ListingStatus: models.StatusApproved, ListingState: models.StateSold, IsFeatured: true},
				&models.PropertyDetail{GrossArea: 400}),
		}

		room := 3
		minArea := 100.0
		cases := []struct {
			name   string
			caller *auth.Identity
			f      listing.Filters
		}{
			{"anonymous", nil, listing.Filters{}},
			{"owner", &auth.Identity{UserID: 3, Role: models.RoleUser}, listing.Filters{Province: "İstanbul"}},
			{"advisor scope", &auth.Identity{UserID: 2, Role: models.RoleAdvisor}, listing.Filters{AdvisorID: uptr(2)}},
			{"admin detail", &auth.Identity{UserID: 1, Role: models.RoleAdmin}, listing.Filters{RoomCount: &room, MinArea: &minArea}},
			{"admin sold", &auth.Identity{UserID: 1, Role: models.RoleAdmin}, listing.Filters{Label: listing.LabelSold}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				pred := listing.Narrow(tc.caller, tc.f, listing.Build(tc.f))
				got, err := store.FindProperties(ctx, pred)
				require.NoError(t, err)

				gotIDs := map[uint]bool{}
				for _, p := range got {
					gotIDs[p.ID] = true
				}
				for _, p := range seeded {
					full, err := store.FindPropertyByID(ctx, p.ID)
					require.NoError(t, err)
					assert.Equal(t, pred.Matches(full), gotIDs[p.ID], "record %s", p.Title)
				}
			})
		}
	})

	t.Run("update, view count and soft delete", func(t *testing.T) {
		p := seedProperty(t, store, models.Property{CreatedBy: 5, Title: "Eski", Price: 1, Category: models.CategoryLand,
			ListingIntent: models.IntentSale, ListingStatus: models.StatusApproved, ListingState: models.StateActive,
			IsFeatured: true}, nil)

		p.Title = "Yeni"
		p.IsFeatured = false
		p.CreatedBy = 999
		require.NoError(t, store.UpdateProperty(ctx, &p))
		require.NoError(t, store.SaveDetail(ctx, &models.PropertyDetail{PropertyID: p.ID, Bedrooms: 1}))
		require.NoError(t, store.SaveDetail(ctx, &models.PropertyDetail{PropertyID: p.ID, Bedrooms: 4}))
		require.NoError(t, store.ReplaceImages(ctx, p.ID, []models.PropertyImage{{URL: "/b.jpg", SortOrder: 1}, {URL: "/a.jpg", SortOrder: 0, IsCover: true}}))
		require.NoError(t, store.IncrementViewCount(ctx, p.ID))
		require.NoError(t, store.IncrementViewCount(ctx, p.ID))

		got, err := store.FindPropertyByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Yeni", got.Title)
		assert.False(t, got.IsFeatured)
		assert.Equal(t, uint(5), got.CreatedBy)
		assert.Equal(t, int64(2), got.ViewCount)
		require.NotNil(t, got.Detail)
		assert.Equal(t, 4, got.Detail.Bedrooms)
		require.Len(t, got.Images, 2)
		assert.Equal(t, "/a.jpg", got.Images[0].URL)

		require.NoError(t, store.SoftDeleteProperty(ctx, p.ID))
		_, err = store.FindPropertyByID(ctx, p.ID)
		assert.ErrorIs(t, err, listing.ErrNotFound)
		assert.ErrorIs(t, store.SoftDeleteProperty(ctx, p.ID), listing.ErrNotFound)
		assert.ErrorIs(t, store.UpdateProperty(ctx, &p), listing.ErrNotFound)
	})
}

func TestUserStore(t *testing.T) {
	db := setupDB(t)
	users := database.NewUserStore(db)
	ctx := context.Background()

	_, err := users.FindUserByEmail(ctx, "yok@emlak.test")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	u := &models.User{Name: "Ali", Email: "ali@emlak.test", PasswordHash: "x", Role: models.RoleAdvisor}
	require.NoError(t, users.CreateUser(ctx, u))

	got, err := users.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ali@emlak.test", got.Email)

	n, err := users.CountUsersByRole(ctx, models.RoleAdvisor)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMigrate_ConvertsLegacyRole(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Exec(
		"INSERT INTO users (name, email, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, now(), now())",
		"Eski", "eski@emlak.test", "x", "consultant").Error)

	require.NoError(t, database.Migrate(db, slog.New(slog.NewTextHandler(io.Discard, nil))))

	var role string
	require.NoError(t, db.Raw("SELECT role FROM users WHERE email = ?", "eski@emlak.test").Scan(&role).Error)
	assert.Equal(t, string(models.RoleAdvisor), role)
}

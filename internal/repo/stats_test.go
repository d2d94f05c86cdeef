package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-country-cache/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCountriesStats_Error_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, _, err := CountriesStats(context.Background(), db); err == nil {
		t.Fatalf("expected error due to missing countries table")
	}
}

func TestCountriesStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Country{})
	count, maxAt, err := CountriesStats(context.Background(), db)
	if err != nil {
		t.Fatalf("CountriesStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestCountriesStats_Max(t *testing.T) {
	db := newTestDB(t, &domain.Country{})

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max
	for i, ts := range []time.Time{t1, t2} {
		c := domain.Country{Name: fmt.Sprintf("C%d", i), NameKey: fmt.Sprintf("c%d", i)}
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := db.Model(&domain.Country{}).Where("id = ?", c.ID).UpdateColumn("updated_at", ts).Error; err != nil {
			t.Fatalf("set updated_at: %v", err)
		}
	}

	count, maxAt, err := CountriesStats(context.Background(), db)
	if err != nil {
		t.Fatalf("CountriesStats: %v", err)
	}
	if count != 2 || maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("got (%d, %v), want (2, %v)", count, maxAt, t2)
	}
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-country-cache/internal/domain"
	"github.com/tbourn/go-country-cache/internal/external"
	"github.com/tbourn/go-country-cache/internal/snapshot"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
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
	if err := db.AutoMigrate(&domain.Country{}, &domain.Meta{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// ----- Fakes -----

type fakeFetcher struct {
	mu    sync.Mutex
	snap  *external.Snapshot
	err   error
	calls int
	// gate, when set, blocks FetchAll until closed.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeFetcher) FetchAll(ctx context.Context) (*external.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}
	return f.snap, f.err
}

type fakeSummary struct {
	calls int
	last  snapshot.Summary
	err   error
}

func (f *fakeSummary) Generate(_ context.Context, s snapshot.Summary) error {
	f.calls++
	f.last = s
	return f.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// raw builds a catalog entry with a JSON-number population.
func raw(name string, population int64, code string) external.RawCountry {
	return external.RawCountry{
		Name:         name,
		Population:   json.Number(fmt.Sprint(population)),
		CurrencyCode: code,
	}
}

func snapshotOf(rates map[string]float64, countries ...external.RawCountry) *external.Snapshot {
	if rates == nil {
		rates = map[string]float64{}
	}
	return &external.Snapshot{Countries: countries, Rates: rates}
}

func allCountries(t *testing.T, db *gorm.DB) []domain.Country {
	t.Helper()
	var out []domain.Country
	if err := db.Order("id ASC").Find(&out).Error; err != nil {
		t.Fatalf("list countries: %v", err)
	}
	return out
}

func allMeta(t *testing.T, db *gorm.DB) []domain.Meta {
	t.Helper()
	var out []domain.Meta
	if err := db.Order("`key` ASC").Find(&out).Error; err != nil {
		t.Fatalf("list meta: %v", err)
	}
	return out
}

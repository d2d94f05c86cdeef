package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-country-cache/internal/domain"
)

func strp(s string) *string      { return &s }
func f64p(f float64) *float64    { return &f }
func tsp(t time.Time) *time.Time { return &t }

func TestLoadKeyIndex(t *testing.T) {
	db := newTestDB(t, &domain.Country{})
	ctx := context.Background()

	a := &domain.Country{Name: "Peru", NameKey: "peru"}
	b := &domain.Country{Name: "Chad", NameKey: "chad"}
	for _, c := range []*domain.Country{a, b} {
		if err := CreateCountry(ctx, db, c); err != nil {
			t.Fatalf("CreateCountry: %v", err)
		}
	}

	idx, err := LoadKeyIndex(ctx, db)
	if err != nil {
		t.Fatalf("LoadKeyIndex: %v", err)
	}
	if len(idx) != 2 || idx["peru"] != a.ID || idx["chad"] != b.ID {
		t.Fatalf("unexpected index: %#v", idx)
	}
}

func TestLoadKeyIndex_Error_NoTable(t *testing.T) {
	db := newTestDB(t)
	if _, err := LoadKeyIndex(context.Background(), db); err == nil {
		t.Fatal("expected error without table")
	}
}

func TestOverwriteCountry_WritesNilsAndZeros(t *testing.T) {
	db := newTestDB(t, &domain.Country{})
	ctx := context.Background()

	orig := &domain.Country{
		Name:         "Wakanda",
		NameKey:      "wakanda",
		Capital:      strp("Birnin Zana"),
		Region:       strp("Africa"),
		Population:   1000,
		CurrencyCode: strp("WKD"),
		ExchangeRate: f64p(10),
		EstimatedGDP: f64p(150000),
		FlagURL:      strp("https://flags/wk.svg"),
	}
	if err := CreateCountry(ctx, db, orig); err != nil {
		t.Fatalf("CreateCountry: %v", err)
	}

	at := time.Date(2025, 10, 26, 12, 0, 0, 0, time.UTC)
	next := &domain.Country{
		Name:            "WAKANDA",
		NameKey:         "wakanda",
		Population:      0,
		CurrencyCode:    strp("WKD"),
		LastRefreshedAt: tsp(at),
	}
	if err := OverwriteCountry(ctx, db, orig.ID, next); err != nil {
		t.Fatalf("OverwriteCountry: %v", err)
	}

	got, err := GetCountryByKey(ctx, db, "wakanda")
	if err != nil {
		t.Fatalf("GetCountryByKey: %v", err)
	}
	if got.ID != orig.ID || got.Name != "WAKANDA" {
		t.Fatalf("identity/display name not updated: %+v", got)
	}
	if got.Capital != nil || got.Region != nil || got.FlagURL != nil {
		t.Fatalf("optional fields should be cleared: %+v", got)
	}
	if got.ExchangeRate != nil || got.EstimatedGDP != nil {
		t.Fatalf("rate/gdp should be cleared: %+v", got)
	}
	if got.Population != 0 {
		t.Fatalf("population should be 0, got %d", got.Population)
	}
	if got.LastRefreshedAt == nil || !got.LastRefreshedAt.Equal(at) {
		t.Fatalf("last_refreshed_at = %v, want %v", got.LastRefreshedAt, at)
	}
}

func TestOverwriteCountry_MissingRow(t *testing.T) {
	db := newTestDB(t, &domain.Country{})
	err := OverwriteCountry(context.Background(), db, 42, &domain.Country{Name: "X", NameKey: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTopCountriesByGDP_ExcludesNullsAndOrders(t *testing.T) {
	db := newTestDB(t, &domain.Country{})
	ctx := context.Background()

	seed := []*domain.Country{
		{Name: "A", NameKey: "a", EstimatedGDP: f64p(10)},
		{Name: "B", NameKey: "b"}, // unknown
		{Name: "C", NameKey: "c", EstimatedGDP: f64p(30)},
		{Name: "D", NameKey: "d", EstimatedGDP: f64p(30)}, // tie with C, inserted later
		{Name: "E", NameKey: "e", EstimatedGDP: f64p(0)},
		{Name: "F", NameKey: "f", EstimatedGDP: f64p(5)},
		{Name: "G", NameKey: "g", EstimatedGDP: f64p(1)},
	}
	for _, c := range seed {
		if err := CreateCountry(ctx, db, c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	top, err := TopCountriesByGDP(ctx, db, 5)
	if err != nil {
		t.Fatalf("TopCountriesByGDP: %v", err)
	}
	want := []string{"C", "D", "A", "F", "G"}
	if len(top) != len(want) {
		t.Fatalf("got %d rows, want %d", len(top), len(want))
	}
	for i, c := range top {
		if c.Name != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, c.Name, want[i])
		}
	}
}

func TestCountListGetDelete(t *testing.T) {
	db := newTestDB(t, &domain.Country{})
	ctx := context.Background()

	for _, c := range []*domain.Country{
		{Name: "Peru", NameKey: "peru"},
		{Name: "Chad", NameKey: "chad"},
	} {
		if err := CreateCountry(ctx, db, c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	n, err := CountCountries(ctx, db)
	if err != nil || n != 2 {
		t.Fatalf("CountCountries = %d, %v", n, err)
	}
	list, err := ListCountries(ctx, db)
	if err != nil || len(list) != 2 || list[0].Name != "Peru" {
		t.Fatalf("ListCountries = %+v, %v", list, err)
	}

	if _, err := GetCountryByKey(ctx, db, "nowhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := DeleteCountryByKey(ctx, db, "peru"); err != nil {
		t.Fatalf("DeleteCountryByKey: %v", err)
	}
	if err := DeleteCountryByKey(ctx, db, "peru"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	if n, _ := CountCountries(ctx, db); n != 1 {
		t.Fatalf("expected 1 row after delete, got %d", n)
	}
}

func TestBackfillNameKeys(t *testing.T) {
	db := newTestDB(t, &domain.Country{})
	ctx := context.Background()

	// Keys written under an older scheme (simple lowercasing, stale values).
	for _, c := range []*domain.Country{
		{Name: "Straße Land", NameKey: "straße land"},
		{Name: "Peru", NameKey: "peru"},
		{Name: "CHAD", NameKey: "legacy-chad"},
	} {
		if err := CreateCountry(ctx, db, c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	changed, err := BackfillNameKeys(ctx, db)
	if err != nil {
		t.Fatalf("BackfillNameKeys: %v", err)
	}
	if changed != 2 {
		t.Fatalf("changed = %d, want 2", changed)
	}
	if _, err := GetCountryByKey(ctx, db, "strasse land"); err != nil {
		t.Fatalf("expected folded key: %v", err)
	}
	if _, err := GetCountryByKey(ctx, db, "chad"); err != nil {
		t.Fatalf("expected recomputed key: %v", err)
	}

	again, err := BackfillNameKeys(ctx, db)
	if err != nil || again != 0 {
		t.Fatalf("second backfill = %d, %v; want 0, nil", again, err)
	}
}

func TestBackfillNameKeys_EmptyNameFails(t *testing.T) {
	db := newTestDB(t, &domain.Country{})
	ctx := context.Background()
	if err := CreateCountry(ctx, db, &domain.Country{Name: "   ", NameKey: "blank"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := BackfillNameKeys(ctx, db); !errors.Is(err, ErrEmptyNameKey) {
		t.Fatalf("expected ErrEmptyNameKey, got %v", err)
	}
}

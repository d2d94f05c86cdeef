// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Country
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// carry no business rules: matching keys are computed by the caller with
// textkey.Normalize.
//
// Error semantics:
//   - Missing rows return ErrNotFound (an alias of gorm.ErrRecordNotFound).
//   - Other DB errors (constraint violations, connectivity) propagate as-is.
package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-country-cache/internal/domain"
	"github.com/tbourn/go-country-cache/internal/textkey"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// countryMutableColumns lists every column a refresh overwrites on an
// existing row. Listing them explicitly makes GORM write nil and zero values.
var countryMutableColumns = []string{
	"name",
	"name_key",
	"capital",
	"region",
	"population",
	"currency_code",
	"exchange_rate",
	"estimated_gdp",
	"flag_url",
	"last_refreshed_at",
}

// LoadKeyIndex returns the name_key → id index of every stored country in a
// single query.
func LoadKeyIndex(ctx context.Context, db *gorm.DB) (map[string]uint, error) {
	var rows []struct {
		ID      uint
		NameKey string
	}
	if err := db.WithContext(ctx).
		Model(&domain.Country{}).
		Select("id", "name_key").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	idx := make(map[string]uint, len(rows))
	for _, r := range rows {
		idx[r.NameKey] = r.ID
	}
	return idx, nil
}

// CreateCountry inserts c and populates c.ID.
func CreateCountry(ctx context.Context, db *gorm.DB, c *domain.Country) error {
	c.ID = 0
	return db.WithContext(ctx).Create(c).Error
}

// OverwriteCountry replaces every mutable column of row id with the values in
// c, including nil and zero values. It returns ErrNotFound when no row has id.
func OverwriteCountry(ctx context.Context, db *gorm.DB, id uint, c *domain.Country) error {
	res := db.WithContext(ctx).
		Model(&domain.Country{}).
		Where("id = ?", id).
		Select(countryMutableColumns).
		Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports changed rows, not matched rows; confirm the row exists.
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Country{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	c.ID = id
	return nil
}

// CountCountries returns the number of stored countries.
func CountCountries(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Country{}).Count(&total).Error
	return total, err
}

// TopCountriesByGDP returns up to n countries with a known estimated GDP,
// highest first. Equal estimates keep insertion (id) order.
func TopCountriesByGDP(ctx context.Context, db *gorm.DB, n int) ([]domain.Country, error) {
	var out []domain.Country
	err := db.WithContext(ctx).
		Where("estimated_gdp IS NOT NULL").
		Order("estimated_gdp DESC").
		Order("id ASC").
		Limit(n).
		Find(&out).Error
	return out, err
}

// ListCountries returns every stored country in id order.
func ListCountries(ctx context.Context, db *gorm.DB) ([]domain.Country, error) {
	var out []domain.Country
	err := db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

// GetCountryByKey fetches the country whose name_key equals key.
func GetCountryByKey(ctx context.Context, db *gorm.DB, key string) (*domain.Country, error) {
	var c domain.Country
	if err := db.WithContext(ctx).Where("name_key = ?", key).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCountryByKey removes the country whose name_key equals key. It
// returns ErrNotFound if nothing was deleted.
func DeleteCountryByKey(ctx context.Context, db *gorm.DB, key string) error {
	res := db.WithContext(ctx).Where("name_key = ?", key).Delete(&domain.Country{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ErrEmptyNameKey is returned by BackfillNameKeys when a stored name has no
// usable key.
var ErrEmptyNameKey = errors.New("name normalizes to an empty key")

// BackfillNameKeys recomputes name_key from name for every stored row inside
// one transaction and returns how many rows changed. It is the migration path
// for rows written before keys existed or under an older normalization.
func BackfillNameKeys(ctx context.Context, db *gorm.DB) (int, error) {
	changed := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []struct {
			ID      uint
			Name    string
			NameKey string
		}
		if err := tx.Model(&domain.Country{}).Select("id", "name", "name_key").Order("id ASC").Find(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			key, ok := textkey.Normalize(r.Name)
			if !ok {
				return fmt.Errorf("country %d: %w", r.ID, ErrEmptyNameKey)
			}
			if key == r.NameKey {
				continue
			}
			if err := tx.Model(&domain.Country{}).Where("id = ?", r.ID).Update("name_key", key).Error; err != nil {
				return fmt.Errorf("country %d: %w", r.ID, err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

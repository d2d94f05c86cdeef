// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the key-value Meta store and the
// refresh timestamp kept under MetaKeyLastRefreshedAt.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-country-cache/internal/domain"
)

// metaTimeLayout is the storage encoding of timestamp values.
const metaTimeLayout = time.RFC3339Nano

// GetMeta returns the value stored under key, or ErrNotFound.
func GetMeta(ctx context.Context, db *gorm.DB, key string) (string, error) {
	var m domain.Meta
	if err := db.WithContext(ctx).Where("`key` = ?", key).First(&m).Error; err != nil {
		return "", err
	}
	return m.Value, nil
}

// PutMeta creates or overwrites the value stored under key.
func PutMeta(ctx context.Context, db *gorm.DB, key, value string) error {
	m := domain.Meta{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&m).Error
}

// GetLastRefreshedAt returns the dataset refresh timestamp, or nil if no
// refresh has ever succeeded.
func GetLastRefreshedAt(ctx context.Context, db *gorm.DB) (*time.Time, error) {
	v, err := GetMeta(ctx, db, domain.MetaKeyLastRefreshedAt)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ts, err := time.Parse(metaTimeLayout, v)
	if err != nil {
		return nil, fmt.Errorf("meta %s: %w", domain.MetaKeyLastRefreshedAt, err)
	}
	ts = ts.UTC()
	return &ts, nil
}

// PutLastRefreshedAt records ts as the dataset refresh timestamp.
func PutLastRefreshedAt(ctx context.Context, db *gorm.DB, ts time.Time) error {
	return PutMeta(ctx, db, domain.MetaKeyLastRefreshedAt, ts.UTC().Format(metaTimeLayout))
}

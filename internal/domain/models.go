// Package domain defines the persistence models for cached country records
// and the refresh metadata store. These types are mapped with GORM and shared
// by the repository, service and HTTP layers.
package domain

import "time"

// Country is one cached country, identified by NameKey.
//
// Fields:
//   - ID: surrogate key assigned on first insert; never reused.
//   - Name: display name exactly as last received from the catalog.
//   - NameKey: canonical comparison key (see textkey.Normalize); unique.
//   - Capital / Region / FlagURL: optional catalog attributes.
//   - Population: defaults to 0 when the catalog omits it.
//   - CurrencyCode: uppercase code of the first listed currency, if any.
//   - ExchangeRate: rate of CurrencyCode against the base currency, if known.
//   - EstimatedGDP: derived estimate; 0 for countries without a currency and
//     nil when the rate is unknown.
//   - LastRefreshedAt: timestamp of the refresh that last wrote the row.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Country struct {
	ID              uint       `json:"id"                gorm:"primaryKey;autoIncrement"`
	Name            string     `json:"name"              gorm:"type:varchar(191);not null;index:idx_countries_name"`
	NameKey         string     `json:"-"                 gorm:"column:name_key;type:varchar(512);not null;uniqueIndex:ux_countries_name_key"`
	Capital         *string    `json:"capital"           gorm:"type:varchar(191)"`
	Region          *string    `json:"region"            gorm:"type:varchar(64)"`
	Population      int64      `json:"population"        gorm:"not null;default:0"`
	CurrencyCode    *string    `json:"currency_code"     gorm:"column:currency_code;type:varchar(16)"`
	ExchangeRate    *float64   `json:"exchange_rate"     gorm:"column:exchange_rate"`
	EstimatedGDP    *float64   `json:"estimated_gdp"     gorm:"column:estimated_gdp"`
	FlagURL         *string    `json:"flag_url"          gorm:"column:flag_url;type:varchar(512)"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at" gorm:"index:idx_countries_last_refreshed_at"`
	CreatedAt       time.Time  `json:"-"`
	UpdatedAt       time.Time  `json:"-"`
}

// TableName returns the database table name for Country.
func (Country) TableName() string { return "countries" }

// MetaKeyLastRefreshedAt is the reserved Meta key holding the timestamp of
// the last successful refresh.
const MetaKeyLastRefreshedAt = "last_refreshed_at"

// Meta is a small key-value store for dataset-wide values. Only
// MetaKeyLastRefreshedAt is written today.
type Meta struct {
	Key       string    `gorm:"type:varchar(64);primaryKey"`
	Value     string    `gorm:"type:varchar(64);not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for Meta.
func (Meta) TableName() string { return "meta" }

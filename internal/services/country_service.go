// Package services – CountryService
//
// This file implements the read and delete operations over the cached
// countries. Name lookups, region filters and currency filters all compare
// through textkey, so matching is case-insensitive under full Unicode case
// folding and identical to the matching used when writing rows.
//
// Service-level errors (ErrCountryNotFound, ErrInvalidSort) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-country-cache/internal/domain"
	"github.com/tbourn/go-country-cache/internal/repo"
	"github.com/tbourn/go-country-cache/internal/textkey"
)

// CountryRepo defines the repository contract required by CountryService.
type CountryRepo interface {
	// ListCountries returns every stored country in id order.
	ListCountries(ctx context.Context, db *gorm.DB) ([]domain.Country, error)

	// GetCountryByKey fetches the country with the given name_key.
	GetCountryByKey(ctx context.Context, db *gorm.DB, key string) (*domain.Country, error)

	// DeleteCountryByKey removes the country with the given name_key.
	DeleteCountryByKey(ctx context.Context, db *gorm.DB, key string) error

	// CountCountries returns the number of stored countries.
	CountCountries(ctx context.Context, db *gorm.DB) (int64, error)

	// GetLastRefreshedAt returns the dataset refresh timestamp, or nil.
	GetLastRefreshedAt(ctx context.Context, db *gorm.DB) (*time.Time, error)

	// CountriesStats returns the row count and the newest UpdatedAt.
	CountriesStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error)
}

// Supported list sort orders.
const (
	SortGDPDesc  = "gdp_desc"
	SortGDPAsc   = "gdp_asc"
	SortNameAsc  = "name_asc"
	SortNameDesc = "name_desc"
)

// ListOptions filters and orders a list query. Empty fields are ignored.
type ListOptions struct {
	Region   string
	Currency string
	Sort     string
}

// Status is the dataset summary.
type Status struct {
	TotalCountries  int64
	LastRefreshedAt *time.Time
}

// CountryService provides the query side of the cache.
type CountryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the country repository used by this service.
	Repo CountryRepo
}

// NewCountryService constructs a CountryService.
func NewCountryService(db *gorm.DB, r CountryRepo) *CountryService {
	return &CountryService{DB: db, Repo: r}
}

// ValidSort reports whether s is empty or a supported sort order.
func ValidSort(s string) bool {
	switch s {
	case "", SortGDPDesc, SortGDPAsc, SortNameAsc, SortNameDesc:
		return true
	}
	return false
}

// List returns the countries matching opts. Without a sort the result is in
// id order; every sort is stable so ties keep id order.
func (s *CountryService) List(ctx context.Context, opts ListOptions) ([]domain.Country, error) {
	tr := otel.Tracer("services/CountryService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("filter.region", opts.Region),
			attribute.String("filter.currency", opts.Currency),
			attribute.String("sort", opts.Sort),
		),
	)
	defer span.End()

	opts.Sort = strings.TrimSpace(opts.Sort)
	if !ValidSort(opts.Sort) {
		return nil, ErrInvalidSort
	}

	rows, err := s.Repo.ListCountries(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	region := strings.TrimSpace(opts.Region)
	currency := strings.TrimSpace(opts.Currency)
	out := rows[:0]
	for _, c := range rows {
		if region != "" && !textkey.EqualPtr(c.Region, region) {
			continue
		}
		if currency != "" && !textkey.EqualPtr(c.CurrencyCode, currency) {
			continue
		}
		out = append(out, c)
	}

	sortCountries(out, opts.Sort)
	span.SetAttributes(attribute.Int("result.count", len(out)))
	return out, nil
}

// sortCountries orders rows in place. GDP orders put unknown estimates last
// in both directions; name orders compare normalized keys.
func sortCountries(rows []domain.Country, order string) {
	var less func(a, b *domain.Country) bool
	switch order {
	case SortGDPDesc:
		less = func(a, b *domain.Country) bool { return gdpLess(a, b, true) }
	case SortGDPAsc:
		less = func(a, b *domain.Country) bool { return gdpLess(a, b, false) }
	case SortNameAsc:
		less = func(a, b *domain.Country) bool { return a.NameKey < b.NameKey }
	case SortNameDesc:
		less = func(a, b *domain.Country) bool { return a.NameKey > b.NameKey }
	default:
		return
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(&rows[i], &rows[j]) })
}

func gdpLess(a, b *domain.Country, desc bool) bool {
	switch {
	case a.EstimatedGDP == nil:
		return false
	case b.EstimatedGDP == nil:
		return true
	case desc:
		return *a.EstimatedGDP > *b.EstimatedGDP
	default:
		return *a.EstimatedGDP < *b.EstimatedGDP
	}
}

// Get returns the country whose name matches name.
func (s *CountryService) Get(ctx context.Context, name string) (*domain.Country, error) {
	tr := otel.Tracer("services/CountryService")
	ctx, span := tr.Start(ctx, "Get")
	defer span.End()

	key, ok := textkey.Normalize(name)
	if !ok {
		return nil, ErrCountryNotFound
	}
	c, err := s.Repo.GetCountryByKey(ctx, s.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCountryNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the country whose name matches name.
func (s *CountryService) Delete(ctx context.Context, name string) error {
	tr := otel.Tracer("services/CountryService")
	ctx, span := tr.Start(ctx, "Delete")
	defer span.End()

	key, ok := textkey.Normalize(name)
	if !ok {
		return ErrCountryNotFound
	}
	err := s.Repo.DeleteCountryByKey(ctx, s.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrCountryNotFound
	}
	return err
}

// Status returns the row count and the last refresh time (nil when the
// dataset has never been refreshed).
func (s *CountryService) Status(ctx context.Context) (*Status, error) {
	tr := otel.Tracer("services/CountryService")
	ctx, span := tr.Start(ctx, "Status")
	defer span.End()

	total, err := s.Repo.CountCountries(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	ts, err := s.Repo.GetLastRefreshedAt(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return &Status{TotalCountries: total, LastRefreshedAt: ts}, nil
}

// Fingerprint returns an opaque token that changes whenever rows are
// inserted, updated or deleted. It backs the list endpoint's ETag.
func (s *CountryService) Fingerprint(ctx context.Context) (string, error) {
	n, ts, err := s.Repo.CountriesStats(ctx, s.DB)
	if err != nil {
		return "", err
	}
	var v int64
	if ts != nil {
		v = ts.UnixNano()
	}
	return fmt.Sprintf("%d-%x", n, v), nil
}

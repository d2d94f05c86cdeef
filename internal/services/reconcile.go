// Package services – Reconciliation
//
// Reconcile applies a batch of Records to the store as one all-or-nothing
// unit. Rows are matched by name_key: a known key overwrites every mutable
// field of the existing row (its id survives), an unknown key inserts a new
// row. The refresh timestamp in meta is written in the same transaction, so
// readers observe either the previous dataset or the new one.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-country-cache/internal/repo"
)

// Counts summarizes a committed reconciliation. Total is the row count
// observed inside the transaction after the batch was applied.
type Counts struct {
	Inserted int
	Updated  int
	Total    int64
}

// Reconcile writes records in input order inside a single transaction on db
// and stamps every touched row and meta with asOf. A duplicate key later in
// the batch updates the row written earlier in the same batch. On any error
// the transaction is rolled back and zero Counts are returned.
func Reconcile(ctx context.Context, db *gorm.DB, records []Record, asOf time.Time) (Counts, error) {
	ctx, span := otel.Tracer("services/Reconcile").Start(ctx, "Reconcile",
		trace.WithAttributes(attribute.Int("records.count", len(records))),
	)
	defer span.End()

	var counts Counts
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counts = Counts{}

		idx, err := repo.LoadKeyIndex(ctx, tx)
		if err != nil {
			return fmt.Errorf("load key index: %w", err)
		}

		for _, rec := range records {
			if rec.NameKey == "" {
				continue
			}
			row := rec.Country(asOf)

			if id, ok := idx[rec.NameKey]; ok {
				err := repo.OverwriteCountry(ctx, tx, id, row)
				if err == nil {
					counts.Updated++
					continue
				}
				if !errors.Is(err, repo.ErrNotFound) {
					return fmt.Errorf("update %q: %w", rec.NameKey, err)
				}
				// Row vanished since the index was loaded; write it anew.
			}

			if err := repo.CreateCountry(ctx, tx, row); err != nil {
				return fmt.Errorf("insert %q: %w", rec.NameKey, err)
			}
			idx[rec.NameKey] = row.ID
			counts.Inserted++
		}

		if err := repo.PutLastRefreshedAt(ctx, tx, asOf); err != nil {
			return fmt.Errorf("write refresh timestamp: %w", err)
		}

		total, err := repo.CountCountries(ctx, tx)
		if err != nil {
			return fmt.Errorf("count countries: %w", err)
		}
		counts.Total = total
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return Counts{}, err
	}

	span.SetAttributes(
		attribute.Int("rows.inserted", counts.Inserted),
		attribute.Int("rows.updated", counts.Updated),
		attribute.Int64("rows.total", counts.Total),
	)
	return counts, nil
}

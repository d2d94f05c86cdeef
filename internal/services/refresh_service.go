// Package services – RefreshService
//
// RefreshService runs the full refresh pipeline:
//
//  1. take the single-flight lock (reject if held)
//  2. fetch the catalog and the rate table
//  3. transform every entry into a Record
//  4. reconcile all Records in one transaction
//  5. after commit: count, rank the top 5 by GDP and render the summary
//
// Nothing is written unless both fetches succeed. Step 5 is best-effort: a
// failing summary is logged and counted but never undoes a commit.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/tbourn/go-country-cache/internal/external"
	"github.com/tbourn/go-country-cache/internal/lock"
	"github.com/tbourn/go-country-cache/internal/repo"
	"github.com/tbourn/go-country-cache/internal/snapshot"
)

// Fetcher retrieves both upstream documents.
type Fetcher interface {
	FetchAll(ctx context.Context) (*external.Snapshot, error)
}

// SummaryWriter renders and stores the post-refresh summary.
type SummaryWriter interface {
	Generate(ctx context.Context, s snapshot.Summary) error
}

// RefreshResult reports a committed refresh.
type RefreshResult struct {
	Inserted    int
	Updated     int
	Total       int64
	RefreshedAt time.Time
}

// RefreshService orchestrates refresh runs.
type RefreshService struct {
	// DB is the GORM handle used for the reconciliation transaction and
	// post-commit reads.
	DB      *gorm.DB
	Fetcher Fetcher
	// Summary may be nil, in which case no image is produced.
	Summary    SummaryWriter
	Lock       lock.Locker
	Multiplier MultiplierSource
	// Now is the clock; asOf is Now().UTC() truncated to whole seconds.
	Now func() time.Time
}

// NewRefreshService wires a RefreshService with an in-process lock, random
// multipliers and the wall clock.
func NewRefreshService(db *gorm.DB, f Fetcher, summary SummaryWriter) *RefreshService {
	return &RefreshService{
		DB:         db,
		Fetcher:    f,
		Summary:    summary,
		Lock:       lock.NewLocal(),
		Multiplier: RandomMultiplier{},
		Now:        time.Now,
	}
}

// Refresh runs one pipeline. It returns ErrRefreshInProgress when another
// run holds the lock and an error wrapping external.ErrExternalUnavailable
// when either source fails; in both cases nothing is written.
func (s *RefreshService) Refresh(ctx context.Context) (*RefreshResult, error) {
	tr := otel.Tracer("services/RefreshService")
	ctx, span := tr.Start(ctx, "Refresh")
	defer span.End()

	lg := zerolog.Ctx(ctx)

	release, err := s.Lock.TryAcquire(ctx)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			refreshTotal.WithLabelValues(outcomeBusy).Inc()
			return nil, ErrRefreshInProgress
		}
		refreshTotal.WithLabelValues(outcomeError).Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("acquire refresh lock: %w", err)
	}
	defer func() {
		// Release on a fresh context so a cancelled request still frees the lock.
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			lg.Warn().Err(rerr).Msg("release refresh lock")
		}
	}()

	start := time.Now()
	res, err := s.run(ctx)
	refreshDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		refreshTotal.WithLabelValues(outcomeSuccess).Inc()
	case errors.Is(err, external.ErrExternalUnavailable):
		refreshTotal.WithLabelValues(outcomeUnavailable).Inc()
	default:
		refreshTotal.WithLabelValues(outcomeError).Inc()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("rows.inserted", res.Inserted),
		attribute.Int("rows.updated", res.Updated),
		attribute.Int64("rows.total", res.Total),
	)
	return res, nil
}

func (s *RefreshService) run(ctx context.Context) (*RefreshResult, error) {
	lg := zerolog.Ctx(ctx)

	snap, err := s.Fetcher.FetchAll(ctx)
	if err != nil {
		lg.Warn().Err(err).Msg("refresh aborted: external fetch failed")
		return nil, err
	}

	// From here on the run is committed to completion: a client that goes
	// away must not roll back a reconciliation already in progress.
	ctx = context.WithoutCancel(ctx)

	asOf := s.now()
	records := make([]Record, 0, len(snap.Countries))
	skipped := 0
	for _, raw := range snap.Countries {
		rec, ok := Transform(raw, snap.Rates, s.multiplier())
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	counts, err := Reconcile(ctx, s.DB, records, asOf)
	if err != nil {
		lg.Error().Err(err).Msg("refresh rolled back")
		return nil, err
	}
	refreshRows.WithLabelValues("insert").Add(float64(counts.Inserted))
	refreshRows.WithLabelValues("update").Add(float64(counts.Updated))

	total := counts.Total

	lg.Info().
		Int("inserted", counts.Inserted).
		Int("updated", counts.Updated).
		Int("skipped", skipped).
		Int64("total", total).
		Time("as_of", asOf).
		Msg("refresh committed")

	s.writeSummary(ctx, total, asOf)

	return &RefreshResult{
		Inserted:    counts.Inserted,
		Updated:     counts.Updated,
		Total:       total,
		RefreshedAt: asOf,
	}, nil
}

// writeSummary ranks the top countries and renders the image. Failures are
// logged and counted only.
func (s *RefreshService) writeSummary(ctx context.Context, total int64, asOf time.Time) {
	if s.Summary == nil {
		return
	}
	lg := zerolog.Ctx(ctx)

	top, err := repo.TopCountriesByGDP(ctx, s.DB, snapshot.TopN)
	if err != nil {
		snapshotFailures.Inc()
		lg.Error().Err(err).Msg("summary: rank top countries")
		return
	}
	sum := snapshot.Summary{Total: total, RefreshedAt: asOf}
	for _, c := range top {
		if c.EstimatedGDP == nil {
			continue
		}
		sum.Top = append(sum.Top, snapshot.Entry{Name: c.Name, GDP: *c.EstimatedGDP})
	}
	if err := s.Summary.Generate(ctx, sum); err != nil {
		snapshotFailures.Inc()
		lg.Error().Err(err).Msg("summary: generate image")
	}
}

func (s *RefreshService) now() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().UTC().Truncate(time.Second)
}

func (s *RefreshService) multiplier() MultiplierSource {
	if s.Multiplier == nil {
		return RandomMultiplier{}
	}
	return s.Multiplier
}

// Package external retrieves the two upstream datasets a refresh needs: the
// country catalog and the exchange-rate table.
//
// Both requests are issued concurrently and each one is bounded by the
// gateway timeout. Any transport failure, non-2xx status, or undecodable body
// from either source fails the whole fetch with ErrExternalUnavailable. Shape
// problems inside an otherwise valid document are tolerated: a non-array
// catalog yields no countries, a missing rates object yields no rates, and
// individual malformed entries are dropped.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Source names reported in SourceError.
const (
	SourceCountries = "countries"
	SourceRates     = "rates"
)

// DefaultTimeout bounds each upstream request when Gateway.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 32 << 20

// ErrExternalUnavailable reports that an upstream source could not be used.
var ErrExternalUnavailable = errors.New("external data source unavailable")

// SourceError identifies which upstream failed. It matches both
// ErrExternalUnavailable and the underlying cause under errors.Is.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("could not fetch data from %s: %v", e.Source, e.Err)
}

// Unwrap exposes the sentinel together with the cause.
func (e *SourceError) Unwrap() []error {
	return []error{ErrExternalUnavailable, e.Err}
}

// RawCountry is one catalog entry as received. String fields hold "" when
// the upstream value is missing or not a string; Population keeps the raw
// JSON value (json.Number, string, nil, ...) for the transformer to coerce.
type RawCountry struct {
	Name       string
	Capital    string
	Region     string
	Population any
	Flag       string
	// CurrencyCode is the code of the first listed currency, untrimmed.
	CurrencyCode string
}

// Snapshot is the combined result of one successful fetch.
type Snapshot struct {
	Countries []RawCountry
	Rates     map[string]float64
}

// Gateway fetches both upstream documents over HTTP.
type Gateway struct {
	Client       *http.Client
	CountriesURL string
	RatesURL     string
	Timeout      time.Duration
}

// NewGateway returns a Gateway using a dedicated http.Client.
func NewGateway(countriesURL, ratesURL string, timeout time.Duration) *Gateway {
	return &Gateway{
		Client:       &http.Client{},
		CountriesURL: countriesURL,
		RatesURL:     ratesURL,
		Timeout:      timeout,
	}
}

// FetchAll retrieves the catalog and the rate table concurrently. It either
// returns both parsed documents or an error wrapping ErrExternalUnavailable.
func (g *Gateway) FetchAll(ctx context.Context) (*Snapshot, error) {
	ctx, span := otel.Tracer("external/Gateway").Start(ctx, "FetchAll")
	defer span.End()

	var (
		countries []RawCountry
		rates     map[string]float64
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		doc, err := g.fetchJSON(egCtx, g.CountriesURL)
		if err != nil {
			return &SourceError{Source: SourceCountries, Err: err}
		}
		countries = parseCountries(doc)
		return nil
	})
	eg.Go(func() error {
		doc, err := g.fetchJSON(egCtx, g.RatesURL)
		if err != nil {
			return &SourceError{Source: SourceRates, Err: err}
		}
		rates = parseRates(doc)
		return nil
	})
	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("countries.count", len(countries)),
		attribute.Int("rates.count", len(rates)),
	)
	return &Snapshot{Countries: countries, Rates: rates}, nil
}

// fetchJSON performs one bounded GET and decodes the body, keeping numbers
// as json.Number.
func (g *Gateway) fetchJSON(ctx context.Context, url string) (any, error) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxBodyBytes)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return doc, nil
}

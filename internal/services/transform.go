// Package services – Record transformer
//
// This file turns one raw catalog entry plus the rate table into a normalized
// Record ready for reconciliation. It owns the economic estimate policy:
//
//   - no currency code: exchange rate unknown, estimated GDP 0
//   - code missing from the rate table, rate not positive, or a code too
//     long to store: exchange rate and estimated GDP both unknown
//   - otherwise: gdp = population × multiplier / rate, where the multiplier
//     is drawn per record from [MultiplierMin, MultiplierMax]
//
// Transform is pure apart from the injected MultiplierSource.
package services

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-country-cache/internal/domain"
	"github.com/tbourn/go-country-cache/internal/external"
	"github.com/tbourn/go-country-cache/internal/textkey"
)

// Multiplier bounds (inclusive) applied to the GDP estimate.
const (
	MultiplierMin = 1000
	MultiplierMax = 2000
)

// maxCurrencyCodeLen matches the width of the currency_code column.
const maxCurrencyCodeLen = 16

// MultiplierSource yields the per-record GDP multiplier.
type MultiplierSource interface {
	Draw() int
}

// RandomMultiplier draws uniformly from [MultiplierMin, MultiplierMax].
type RandomMultiplier struct{}

// Draw implements MultiplierSource.
func (RandomMultiplier) Draw() int {
	return MultiplierMin + rand.IntN(MultiplierMax-MultiplierMin+1)
}

// FixedMultiplier always returns its value. Useful for deterministic runs.
type FixedMultiplier int

// Draw implements MultiplierSource.
func (f FixedMultiplier) Draw() int { return int(f) }

// Record is a normalized country ready to be written.
type Record struct {
	Name         string
	NameKey      string
	Capital      *string
	Region       *string
	Population   int64
	CurrencyCode *string
	ExchangeRate *float64
	EstimatedGDP *float64
	FlagURL      *string
}

// Country converts r into a row stamped with asOf.
func (r Record) Country(asOf time.Time) *domain.Country {
	t := asOf
	return &domain.Country{
		Name:            r.Name,
		NameKey:         r.NameKey,
		Capital:         r.Capital,
		Region:          r.Region,
		Population:      r.Population,
		CurrencyCode:    r.CurrencyCode,
		ExchangeRate:    r.ExchangeRate,
		EstimatedGDP:    r.EstimatedGDP,
		FlagURL:         r.FlagURL,
		LastRefreshedAt: &t,
	}
}

// Transform normalizes raw using rates. It reports false when the entry has
// no usable name and must be skipped.
func Transform(raw external.RawCountry, rates map[string]float64, mult MultiplierSource) (Record, bool) {
	name := strings.TrimSpace(raw.Name)
	key, ok := textkey.Normalize(name)
	if !ok {
		return Record{}, false
	}

	rec := Record{
		Name:         name,
		NameKey:      key,
		Capital:      optString(raw.Capital),
		Region:       optString(raw.Region),
		Population:   coercePopulation(raw.Population),
		FlagURL:      optString(raw.Flag),
	}

	code, present := currencyCode(raw.CurrencyCode)
	if !present {
		zero := 0.0
		rec.EstimatedGDP = &zero
		return rec, true
	}
	if code == nil {
		return rec, true
	}
	rec.CurrencyCode = code

	rate, found := rates[*code]
	if !found || rate <= 0 {
		return rec, true
	}

	if mult == nil {
		mult = RandomMultiplier{}
	}
	gdp := float64(rec.Population) * float64(mult.Draw()) / rate
	rec.ExchangeRate = &rate
	rec.EstimatedGDP = &gdp
	return rec, true
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// currencyCode upper-cases and trims a code. present is false when the
// entry carries no code at all; an over-long code is present but unusable
// and yields a nil code.
func currencyCode(s string) (code *string, present bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil, false
	}
	if len(s) > maxCurrencyCodeLen {
		return nil, true
	}
	return &s, true
}

// coercePopulation maps the raw population value onto a non-negative
// integer. Missing or non-numeric values become 0 and fractions truncate.
func coercePopulation(v any) int64 {
	var f float64
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return clampPopulation(n)
		}
		p, err := t.Float64()
		if err != nil {
			return 0
		}
		f = p
	case float64:
		f = t
	case int64:
		return clampPopulation(t)
	case int:
		return clampPopulation(int64(t))
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = p
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

func clampPopulation(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

package external

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// parseCountries converts a decoded catalog document into entries. A
// document that is not an array yields nil; elements that are not objects
// are skipped.
func parseCountries(doc any) []RawCountry {
	items, ok := doc.([]any)
	if !ok {
		return nil
	}
	out := make([]RawCountry, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, RawCountry{
			Name:         stringField(m, "name"),
			Capital:      stringField(m, "capital"),
			Region:       stringField(m, "region"),
			Population:   m["population"],
			Flag:         stringField(m, "flag"),
			CurrencyCode: firstCurrencyCode(m["currencies"]),
		})
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// firstCurrencyCode returns the code of the first currency object, or "".
func firstCurrencyCode(v any) string {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return ""
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		return ""
	}
	return stringField(first, "code")
}

// parseRates extracts the "rates" object. Missing or non-object rates yield
// an empty map; values that are not finite numbers (or numeric strings) are
// dropped one by one.
func parseRates(doc any) map[string]float64 {
	out := map[string]float64{}
	m, ok := doc.(map[string]any)
	if !ok {
		return out
	}
	raw, ok := m["rates"].(map[string]any)
	if !ok {
		return out
	}
	for code, v := range raw {
		if f, ok := toFloat(v); ok {
			out[code] = f
		}
	}
	return out
}

// toFloat coerces a decoded JSON scalar to a finite float64.
func toFloat(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case float64:
		f = t
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Country HTTP handlers.
//
// This file exposes REST endpoints for the country cache:
//   - POST   /countries/refresh   (rebuild from upstream)
//   - GET    /countries           (list, filter, sort)
//   - GET    /countries/image     (summary PNG, ETag support)
//   - GET    /countries/{name}    (lookup by name)
//   - DELETE /countries/{name}    (remove by name)
//   - GET    /status              (row count and last refresh time)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/zeebo/blake3"

	"github.com/tbourn/go-country-cache/internal/domain"
	"github.com/tbourn/go-country-cache/internal/services"
	"github.com/tbourn/go-country-cache/internal/snapshot"
)

// TimeLayout is the wire format of every timestamp in API responses.
const TimeLayout = "2006-01-02T15:04:05Z"

//
// Service contracts (context-aware)
//

// RefreshService rebuilds the cache from the upstream sources.
type RefreshService interface {
	Refresh(ctx context.Context) (*services.RefreshResult, error)
}

// CountryService defines the query and delete operations consumed by handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CountryService interface {
	List(ctx context.Context, opts services.ListOptions) ([]domain.Country, error)
	Get(ctx context.Context, name string) (*domain.Country, error)
	Delete(ctx context.Context, name string) error
	Status(ctx context.Context) (*services.Status, error)
	// Fingerprint changes whenever the stored rows change.
	Fingerprint(ctx context.Context) (string, error)
}

// SummarySource returns the most recent summary image.
type SummarySource interface {
	Latest(ctx context.Context) (*snapshot.Artifact, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the service.
type Handlers struct {
	refreshSvc RefreshService
	countrySvc CountryService
	summary    SummarySource
}

// New constructs and returns a Handlers instance bound to the given services.
func New(refreshSvc RefreshService, countrySvc CountryService, summary SummarySource) *Handlers {
	return &Handlers{refreshSvc: refreshSvc, countrySvc: countrySvc, summary: summary}
}

//
// DTOs
//

// CountryResponse is the public representation of a cached country.
type CountryResponse struct {
	ID              uint     `json:"id" example:"1"`
	Name            string   `json:"name" example:"Nigeria"`
	Capital         *string  `json:"capital" example:"Abuja"`
	Region          *string  `json:"region" example:"Africa"`
	Population      int64    `json:"population" example:"206139589"`
	CurrencyCode    *string  `json:"currency_code" example:"NGN"`
	ExchangeRate    *float64 `json:"exchange_rate" example:"1600.23"`
	EstimatedGDP    *float64 `json:"estimated_gdp" example:"25767448125.2"`
	FlagURL         *string  `json:"flag_url" example:"https://flagcdn.com/ng.svg"`
	LastRefreshedAt *string  `json:"last_refreshed_at" example:"2025-10-22T18:00:00Z"`
}

// RefreshResponse summarizes a committed refresh.
type RefreshResponse struct {
	Inserted        int    `json:"inserted" example:"3"`
	Updated         int    `json:"updated" example:"247"`
	Total           int64  `json:"total" example:"250"`
	LastRefreshedAt string `json:"last_refreshed_at" example:"2025-10-22T18:00:00Z"`
}

// StatusResponse reports the dataset size and freshness.
type StatusResponse struct {
	TotalCountries  int64   `json:"total_countries" example:"250"`
	LastRefreshedAt *string `json:"last_refreshed_at" example:"2025-10-22T18:00:00Z"`
}

// ListCountriesQuery holds the accepted query parameters of ListCountries.
type ListCountriesQuery struct {
	Region   string `form:"region" binding:"omitempty,max=64"`
	Currency string `form:"currency" binding:"omitempty,max=16"`
	Sort     string `form:"sort" binding:"omitempty,oneof=gdp_desc gdp_asc name_asc name_desc"`
}

//
// Helpers
//

func formatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toCountryResponse(c *domain.Country) CountryResponse {
	return CountryResponse{
		ID:              c.ID,
		Name:            c.Name,
		Capital:         c.Capital,
		Region:          c.Region,
		Population:      c.Population,
		CurrencyCode:    c.CurrencyCode,
		ExchangeRate:    c.ExchangeRate,
		EstimatedGDP:    c.EstimatedGDP,
		FlagURL:         c.FlagURL,
		LastRefreshedAt: formatTimePtr(c.LastRefreshedAt),
	}
}

// bindingDetails turns validator errors into a query-parameter → message map.
func bindingDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"query": "malformed query string"}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "oneof":
			out[name] = "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
		case "max":
			out[name] = "must be at most " + fe.Param() + " characters"
		default:
			out[name] = "invalid value"
		}
	}
	return out
}

// etagMatches reports whether an If-None-Match header value matches etag.
// Weak comparison is used and "*" matches any current representation.
func etagMatches(header, etag string) bool {
	want := strings.TrimPrefix(etag, "W/")
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "*" || strings.TrimPrefix(part, "W/") == want {
			return true
		}
	}
	return false
}

// listETag derives a weak validator from the dataset fingerprint and the
// query, so filtered and sorted views revalidate independently.
func listETag(fp string, q ListCountriesQuery) string {
	sum := blake3.Sum256([]byte(q.Region + "\x00" + q.Currency + "\x00" + q.Sort))
	return `W/"countries-` + fp + "-" + hex.EncodeToString(sum[:8]) + `"`
}

//
// Handlers
//

// RefreshCountries godoc
// @ID          refreshCountries
// @Summary     Refresh the country cache
// @Description Fetches the catalog and exchange rates, reconciles all rows in one transaction and regenerates the summary image. Rejected while another refresh runs.
// @Tags        Countries
// @Produce     json
//
// @Success     200  {object}  handlers.RefreshResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Refresh already in progress"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     503  {object}  handlers.ErrorResponse  "External data source unavailable"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /countries/refresh [post]
func (h *Handlers) RefreshCountries(c *gin.Context) {
	res, err := h.refreshSvc.Refresh(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RefreshResponse{
		Inserted:        res.Inserted,
		Updated:         res.Updated,
		Total:           res.Total,
		LastRefreshedAt: formatTime(res.RefreshedAt),
	})
}

// ListCountries godoc
// @ID          listCountries
// @Summary     List cached countries
// @Description Returns all cached countries, optionally filtered by region and currency (case-insensitive) and sorted. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Countries
// @Produce     json
//
// @Param       region    query  string  false  "Region filter"    example(Africa)
// @Param       currency  query  string  false  "Currency filter"  example(NGN)
// @Param       sort      query  string  false  "Sort order"       Enums(gdp_desc, gdp_asc, name_asc, name_desc)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {array}   handlers.CountryResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /countries [get]
func (h *Handlers) ListCountries(c *gin.Context) {
	var q ListCountriesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		failWithDetails(c, http.StatusBadRequest, ErrCodeValidation, "validation failed", bindingDetails(err))
		return
	}

	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if fp, err := h.countrySvc.Fingerprint(ctx); err == nil {
		etag := listETag(fp, q)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && etagMatches(inm, etag) {
			c.Status(http.StatusNotModified)
			return
		}
	}

	rows, err := h.countrySvc.List(ctx, services.ListOptions{
		Region:   q.Region,
		Currency: q.Currency,
		Sort:     q.Sort,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	out := make([]CountryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toCountryResponse(&rows[i]))
	}
	ok(c, http.StatusOK, out)
}

// GetSummaryImage godoc
// @ID          getSummaryImage
// @Summary     Summary image
// @Description Returns the PNG generated by the last successful refresh. Supports If-None-Match and may return 304.
// @Tags        Countries
// @Produce     png
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {file}    file
// @Header      200  {string}  ETag  "Content digest of the image"
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Summary image not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /countries/image [get]
func (h *Handlers) GetSummaryImage(c *gin.Context) {
	art, err := h.summary.Latest(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}

	etag := art.ETag()
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && etagMatches(inm, etag) {
		c.Status(http.StatusNotModified)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="summary.png"`)
	c.Data(http.StatusOK, "image/png", art.Data)
}

// GetCountry godoc
// @ID          getCountry
// @Summary     Get a country
// @Description Looks a country up by name, ignoring case.
// @Tags        Countries
// @Produce     json
//
// @Param       name  path  string  true  "Country name"  example(Nigeria)
//
// @Success     200  {object}  handlers.CountryResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Country not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /countries/{name} [get]
func (h *Handlers) GetCountry(c *gin.Context) {
	row, err := h.countrySvc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, toCountryResponse(row))
}

// DeleteCountry godoc
// @ID          deleteCountry
// @Summary     Delete a country
// @Description Removes a country by name, ignoring case. A later refresh re-inserts it with a new id.
// @Tags        Countries
//
// @Param       name  path  string  true  "Country name"  example(Nigeria)
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Country not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /countries/{name} [delete]
func (h *Handlers) DeleteCountry(c *gin.Context) {
	if err := h.countrySvc.Delete(c.Request.Context(), c.Param("name")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// GetStatus godoc
// @ID          getStatus
// @Summary     Dataset status
// @Description Returns the number of cached countries and the time of the last successful refresh (null if never).
// @Tags        Meta
// @Produce     json
//
// @Success     200  {object}  handlers.StatusResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /status [get]
func (h *Handlers) GetStatus(c *gin.Context) {
	st, err := h.countrySvc.Status(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, StatusResponse{
		TotalCountries:  st.TotalCountries,
		LastRefreshedAt: formatTimePtr(st.LastRefreshedAt),
	})
}

// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, compression,
// CORS, security headers, and rate limiting of the refresh endpoint.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-country-cache/docs"
	"github.com/tbourn/go-country-cache/internal/config"
	"github.com/tbourn/go-country-cache/internal/domain"
	"github.com/tbourn/go-country-cache/internal/http/handlers"
	"github.com/tbourn/go-country-cache/internal/http/middleware"
	"github.com/tbourn/go-country-cache/internal/repo"
	"github.com/tbourn/go-country-cache/internal/services"
)

// Version is reported by the root banner.
const Version = "1.0"

// maxBodyBytes caps request bodies. No endpoint accepts a body today.
const maxBodyBytes = 64 << 10

// countryRepoShim adapts the repository free functions to the
// services.CountryRepo interface expected by the CountryService.
type countryRepoShim struct{}

// ListCountries proxies repo.ListCountries.
func (countryRepoShim) ListCountries(ctx context.Context, db *gorm.DB) ([]domain.Country, error) {
	return repo.ListCountries(ctx, db)
}

// GetCountryByKey proxies repo.GetCountryByKey.
func (countryRepoShim) GetCountryByKey(ctx context.Context, db *gorm.DB, key string) (*domain.Country, error) {
	return repo.GetCountryByKey(ctx, db, key)
}

// DeleteCountryByKey proxies repo.DeleteCountryByKey.
func (countryRepoShim) DeleteCountryByKey(ctx context.Context, db *gorm.DB, key string) error {
	return repo.DeleteCountryByKey(ctx, db, key)
}

// CountCountries proxies repo.CountCountries.
func (countryRepoShim) CountCountries(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountCountries(ctx, db)
}

// CountriesStats proxies repo.CountriesStats.
func (countryRepoShim) CountriesStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return repo.CountriesStats(ctx, db)
}

// GetLastRefreshedAt proxies repo.GetLastRefreshedAt.
func (countryRepoShim) GetLastRefreshedAt(ctx context.Context, db *gorm.DB) (*time.Time, error) {
	return repo.GetLastRefreshedAt(ctx, db)
}

// NewCountryService builds the query service over the repo package.
func NewCountryService(db *gorm.DB) *services.CountryService {
	return services.NewCountryService(db, countryRepoShim{})
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. Country routes and /status are mounted under cfg.APIBasePath; the
// banner, health, metrics and Swagger routes always live at the root.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs, request-scoped logger in the context
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip (JSON only; the PNG is already compressed)
//  8. CORS and security headers
//
// The token-bucket limiter is attached to POST /countries/refresh only.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, refresh handlers.RefreshService, summary handlers.SummarySource, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	apiBase := cfg.APIBasePath
	imagePath := joinPath(apiBase, "/countries/image")
	listPath := joinPath(apiBase, "/countries")

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(maxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedExtensions([]string{".png"}),
		gzip.WithExcludedPaths([]string{imagePath, "/metrics"}),
	))

	// 8) CORS posture (safe defaults: allow all if none configured)
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		Revalidate:   []string{imagePath, listPath},
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Banner and liveness
	r.GET("/", handlers.Root(handlers.ServiceInfo{Service: cfg.OTEL.ServiceName, Version: Version}))
	r.GET("/health", handlers.Health)
	r.GET("/healthz", handlers.Health)

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = apiBase
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(refresh, NewCountryService(db), summary)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())

	api := groupWithPrefix(r, apiBase)
	{
		api.POST("/countries/refresh", rl.Handler(), h.RefreshCountries)
		api.GET("/countries", h.ListCountries)
		api.GET("/countries/image", h.GetSummaryImage)
		api.GET("/countries/:name", h.GetCountry)
		api.DELETE("/countries/:name", h.DeleteCountry)
		api.GET("/status", h.GetStatus)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath joins a base path and a route the way groupWithPrefix mounts it.
func joinPath(base, route string) string {
	if base == "" || base == "/" {
		return route
	}
	return strings.TrimRight(base, "/") + route
}

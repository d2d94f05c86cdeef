// Service metadata endpoints: banner and liveness.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServiceInfo is the payload of the root banner.
type ServiceInfo struct {
	Service string `json:"service" example:"go-country-cache"`
	Version string `json:"version" example:"1.0"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// Root godoc
// @ID          root
// @Summary     Service banner
// @Tags        Meta
// @Produce     json
// @Success     200  {object}  handlers.ServiceInfo
// @Router      / [get]
func Root(info ServiceInfo) gin.HandlerFunc {
	return func(c *gin.Context) { ok(c, http.StatusOK, info) }
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Meta
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Router      /healthz [get]
func Health(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{Status: "ok"})
}

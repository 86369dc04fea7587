package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"jobportal-crm/internal/core/auth"
	"jobportal-crm/internal/domain"
	mdw "jobportal-crm/internal/transport/http/middleware"
)

// NewAdminEngine serves /admin/v1 (admin role only) and the Prometheus
// scrape endpoint.
func NewAdminEngine(l *zap.Logger, jwter *auth.JWTer, users mdw.AccountLookup, reg *Registry) *gin.Engine {
	r := baseEngine(l)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin/v1")
	admin.Use(authChain(l, jwter, users, domain.RoleAdmin)...)
	reg.MountAdmin(admin)
	return r
}

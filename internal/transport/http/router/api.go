package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobportal-crm/internal/core/auth"
	"jobportal-crm/internal/core/server"
	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/transport/http/ez"
	mdw "jobportal-crm/internal/transport/http/middleware"
)

// Limits shared by both engines.
const (
	maxBody        = 16 << 20
	requestTimeout = 30 * time.Second
)

func baseEngine(l *zap.Logger) *gin.Engine {
	if l == nil {
		l = zap.NewNop()
	}
	ez.RegisterValidators()
	r := server.NewRouter()
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(maxBody),
		mdw.Timeout(requestTimeout),
		mdw.Metrics(),
		mdw.AccessLog(l),
		mdw.Recovery(l),
	)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	return r
}

// authChain verifies the bearer token and, when users is set, that the
// account behind it is still active.
func authChain(l *zap.Logger, jwter *auth.JWTer, users mdw.AccountLookup, roles ...domain.Role) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{mdw.AuthJWT(jwter, roles...)}
	if users != nil {
		chain = append(chain, mdw.ActiveAccount(users, l))
	}
	return chain
}

func NewAPIEngine(l *zap.Logger, jwter *auth.JWTer, users mdw.AccountLookup, reg *Registry) *gin.Engine {
	r := baseEngine(l)
	api := r.Group("/api/v1")
	authed := api.Group("")
	authed.Use(authChain(l, jwter, users)...)
	reg.MountAPI(api, authed)
	return r
}

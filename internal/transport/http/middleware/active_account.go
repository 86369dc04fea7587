package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/transport/http/ez"
	resp "jobportal-crm/internal/transport/http/response"
)

// AccountLookup finds accounts that have not been banned.
type AccountLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// ActiveAccount refuses tokens whose account was banned after the token was
// issued. It must run after AuthJWT.
func ActiveAccount(users AccountLookup, l *zap.Logger) gin.HandlerFunc {
	if l == nil {
		l = zap.NewNop()
	}
	return func(c *gin.Context) {
		a, ok := ez.ActorFrom(c)
		if !ok {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		u, err := users.FindByID(c.Request.Context(), a.ID)
		if err != nil {
			l.Error("account lookup failed", zap.String("uid", a.ID), zap.Error(err))
			resp.Abort(c, resp.Error(resp.CodeServerError, ""))
			return
		}
		if u == nil {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "account disabled"))
			return
		}
		c.Next()
	}
}

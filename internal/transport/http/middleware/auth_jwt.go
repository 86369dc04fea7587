package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"jobportal-crm/internal/core/auth"
	"jobportal-crm/internal/domain"
	"jobportal-crm/internal/transport/http/ez"
	resp "jobportal-crm/internal/transport/http/response"
)

const KeyClaims = "claims"

// AuthJWT verifies the bearer token and stores the caller for handlers. With
// roles given, any other role is refused.
func AuthJWT(j *auth.JWTer, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if len(roles) > 0 && !allowed(roles, claims.Role) {
			resp.Abort(c, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(KeyClaims, claims)
		ez.SetActor(c, claims.Actor())
		c.Next()
	}
}

func allowed(roles []domain.Role, r domain.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}
